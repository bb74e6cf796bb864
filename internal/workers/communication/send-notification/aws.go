// internal/workers/communication/send-notification/aws.go
package sendnotification

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SESChannel struct {
	client SESService
	from   string
	to     string
}

func NewSESChannel(client SESService, from, to string) *SESChannel {
	return &SESChannel{client: client, from: from, to: to}
}

func (c *SESChannel) Name() string { return "ses" }

func (c *SESChannel) Send(ctx context.Context, subject, body string) error {
	_, err := c.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{c.to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(c.from),
	})
	return err
}

// snsSubjectLimit is the longest subject SNS accepts for email endpoints.
const snsSubjectLimit = 100

type SNSChannel struct {
	client   SNSService
	topicARN string
}

func NewSNSChannel(client SNSService, topicARN string) *SNSChannel {
	return &SNSChannel{client: client, topicARN: topicARN}
}

func (c *SNSChannel) Name() string { return "sns" }

func (c *SNSChannel) Send(ctx context.Context, subject, body string) error {
	if r := []rune(subject); len(r) > snsSubjectLimit {
		subject = string(r[:snsSubjectLimit])
	}
	_, err := c.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	return err
}
