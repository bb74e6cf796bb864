// internal/workers/communication/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"easyapply/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Target:        "operator@example.com",
		SubjectPrefix: "LinkedIn Automation: ",
		Timeout:       5 * time.Second,
	}
}

// startSMTPServer accepts one session and sends the DATA payload on the returned channel.
func startSMTPServer(t *testing.T) (string, int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")
		var data string
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				_ = tp.PrintfLine("250 localhost")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				_ = tp.PrintfLine("250 OK")
			case cmd == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				data = strings.Join(lines, "\n")
				_ = tp.PrintfLine("250 queued")
			case cmd == "QUIT":
				_ = tp.PrintfLine("221 bye")
				received <- data
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port, received
}

// ==========================
// Template Tests
// ==========================

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data map[string]interface{}
		want string
	}{
		{
			name: "all placeholders",
			tmpl: "Applied to job: {{jobTitle}} at {{company}} (ID: {{jobId}})",
			data: map[string]interface{}{"jobTitle": "Go Developer", "company": "Acme", "jobId": "123"},
			want: "Applied to job: Go Developer at Acme (ID: 123)",
		},
		{
			name: "missing placeholder removed",
			tmpl: "Error applying to job {{jobId}}: {{error}}",
			data: map[string]interface{}{"jobId": "9"},
			want: "Error applying to job 9: ",
		},
		{
			name: "error and int values",
			tmpl: "Failed to login after {{attempts}} attempts: {{error}}",
			data: map[string]interface{}{"attempts": 3, "error": errors.New("timeout")},
			want: "Failed to login after 3 attempts: timeout",
		},
		{
			name: "braces in values kept",
			tmpl: "Error applying to job {{jobId}}: {{error}}",
			data: map[string]interface{}{"jobId": "{{error}}", "error": errors.New("unexpected token {{x}}")},
			want: "Error applying to job {{error}}: unexpected token {{x}}",
		},
		{
			name: "unterminated placeholder kept",
			tmpl: "Applied to {{jobTitle}} at {{company",
			data: map[string]interface{}{"jobTitle": "Go {{Dev}}"},
			want: "Applied to Go {{Dev}} at {{company",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderTemplate(tt.tmpl, tt.data))
		})
	}
}

func TestCompose(t *testing.T) {
	msg, err := Compose(EventSearchError, map[string]interface{}{"keyword": "golang", "error": "no search box"})
	require.NoError(t, err)
	assert.Equal(t, "Search Error", msg.Subject)
	assert.Equal(t, "Failed to search for 'golang': no search box", msg.Body)

	_, err = Compose(Event("unknown"), nil)
	assert.Error(t, err)
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Send(t *testing.T) {
	tests := []struct {
		name           string
		sesErr         error
		snsErr         error
		wantStatus     string
		wantChannels   []string
		validateOutput func(t *testing.T, in *ses.SendEmailInput, pub *sns.PublishInput)
	}{
		{
			name:         "all channels deliver",
			wantStatus:   StatusSent,
			wantChannels: []string{"ses", "sns"},
			validateOutput: func(t *testing.T, in *ses.SendEmailInput, pub *sns.PublishInput) {
				assert.Equal(t, "LinkedIn Automation: Login Successful", *in.Message.Subject.Data)
				assert.Equal(t, []string{"operator@example.com"}, in.Destination.ToAddresses)
				assert.Equal(t, "bot@example.com", *in.Source)
				assert.Equal(t, "arn:aws:sns:us-east-1:123:autoapply", *pub.TopicArn)
				assert.Equal(t, "Successfully logged into LinkedIn.", *pub.Message)
			},
		},
		{
			name:         "one channel fails",
			sesErr:       errors.New("throttled"),
			wantStatus:   StatusSent,
			wantChannels: []string{"sns"},
		},
		{
			name:       "every channel fails",
			sesErr:     errors.New("throttled"),
			snsErr:     errors.New("denied"),
			wantStatus: StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSES *ses.SendEmailInput
			var gotSNS *sns.PublishInput
			sesMock := &MockSESService{
				SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
					gotSES = params
					return &ses.SendEmailOutput{}, tt.sesErr
				},
			}
			snsMock := &MockSNSService{
				PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
					gotSNS = params
					return &sns.PublishOutput{}, tt.snsErr
				},
			}

			h := NewHandlerWithChannels(createTestConfig(), logger.NewTestLogger(t),
				NewSESChannel(sesMock, "bot@example.com", "operator@example.com"),
				NewSNSChannel(snsMock, "arn:aws:sns:us-east-1:123:autoapply"),
			)

			msg, err := Compose(EventLoginSuccess, nil)
			require.NoError(t, err)
			out := h.Send(context.Background(), msg.Subject, msg.Body)

			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantChannels, out.Channels)
			assert.NotEmpty(t, out.NotificationID)
			if tt.validateOutput != nil {
				tt.validateOutput(t, gotSES, gotSNS)
			}
		})
	}
}

func TestHandler_NoChannels(t *testing.T) {
	h := NewHandlerWithChannels(createTestConfig(), logger.NewNoOpLogger())
	out := h.Send(context.Background(), "Cycle Error", "boom")
	assert.Equal(t, StatusDisabled, out.Status)
}

func TestHandler_PrefixAppliedOnce(t *testing.T) {
	var subjects []string
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			subjects = append(subjects, *params.Subject)
			return &sns.PublishOutput{}, nil
		},
	}
	h := NewHandlerWithChannels(createTestConfig(), logger.NewNoOpLogger(), NewSNSChannel(snsMock, "arn"))

	h.Notify(context.Background(), "Error", "x")
	h.Notify(context.Background(), "LinkedIn Automation: Error", "x")

	assert.Equal(t, []string{"LinkedIn Automation: Error", "LinkedIn Automation: Error"}, subjects)
}

func TestSNSChannel_TruncatesSubject(t *testing.T) {
	var got string
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			got = *params.Subject
			return &sns.PublishOutput{}, nil
		},
	}
	require.NoError(t, NewSNSChannel(snsMock, "arn").Send(context.Background(), strings.Repeat("s", 150), "body"))
	assert.Len(t, got, snsSubjectLimit)
}

// ==========================
// SMTP Tests
// ==========================

func TestSMTPChannel_Send(t *testing.T) {
	host, port, received := startSMTPServer(t)

	ch := NewSMTPChannel(SMTPConfig{
		Enabled: true,
		Host:    host,
		Port:    port,
		From:    "bot@example.com",
	}, "operator@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ch.Send(ctx, "LinkedIn Automation: Job Application Submitted", "Applied to job: Go at Acme (ID: 1)"))

	select {
	case data := <-received:
		assert.Contains(t, data, "Subject: LinkedIn Automation: Job Application Submitted")
		assert.Contains(t, data, "To: operator@example.com")
		assert.Contains(t, data, "Applied to job: Go at Acme (ID: 1)")
	case <-time.After(5 * time.Second):
		t.Fatal("smtp server received nothing")
	}
}

func TestSMTPChannel_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	ch := NewSMTPChannel(SMTPConfig{Host: "127.0.0.1", Port: addr.Port}, "operator@example.com")
	err = ch.Send(context.Background(), "s", "b")
	assert.ErrorContains(t, err, "failed to connect")
}

func TestBuildEmailMessage(t *testing.T) {
	msg := buildEmailMessage("a@example.com", "b@example.com", "Hello", "Body")
	assert.True(t, strings.HasPrefix(msg, "From: a@example.com\r\nTo: b@example.com\r\nSubject: Hello\r\n"))
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\nBody")
}

// ==========================
// Recorder Tests
// ==========================

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.NotifyEvent(context.Background(), EventSubmitted, map[string]interface{}{"jobTitle": "Go", "company": "Acme", "jobId": "1"})
	r.Notify(context.Background(), "raw", "body")

	assert.Equal(t, []Event{EventSubmitted, ""}, r.Events())
	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Job Application Submitted", msgs[0].Subject)
}
