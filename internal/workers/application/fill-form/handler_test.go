// internal/workers/application/fill-form/handler_test.go
package fillform

import (
	"context"
	"errors"
	"testing"

	"easyapply/internal/browser"
	"easyapply/internal/browser/browsertest"
	"easyapply/internal/common/config"
	"easyapply/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestAnswers() config.OrderedMap {
	return config.OrderedMap{
		{Key: "years", Value: "5"},
		{Key: "authorized", Value: "Yes"},
		{Key: "sponsorship", Value: "No"},
		{Key: "work", Value: "Remote"},
		{Key: "country", Value: "Canada"},
		{Key: "cover", Value: "I am excited to apply."},
	}
}

func createTestConfig() *Config {
	return &Config{
		Answers: createTestAnswers(),
		ResumeMapping: config.OrderedMap{
			{Key: "engineer", Value: "eng.pdf"},
			{Key: "backend", Value: "backend.pdf"},
		},
		DefaultResume: config.DefaultResumePath,
	}
}

func label(text, forID string) *browsertest.Element {
	return browsertest.NewElement("label", text).WithAttr("for", forID)
}

// ==========================
// Matching Tests
// ==========================

func TestMatchAnswer(t *testing.T) {
	answers := createTestAnswers()

	tests := []struct {
		name   string
		label  string
		want   string
		wantOK bool
	}{
		{"substring match", "are you authorized to work", "Yes", true},
		{"case and whitespace", "  How many YEARS of experience?  ", "5", true},
		{"no match", "What is your favourite colour?", "", false},
		{"empty label", "", "", false},
		// "authorized to work" also contains "work"; mapping order wins
		{"first match wins", "Are you AUTHORIZED to work in Canada?", "Yes", true},
		{"later key only", "Preferred work arrangement", "Remote", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchAnswer(tt.label, answers)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchAnswer_OrderNotSpecificity(t *testing.T) {
	answers := config.OrderedMap{
		{Key: "work", Value: "generic"},
		{Key: "authorized to work", Value: "specific"},
	}
	got, ok := MatchAnswer("Are you authorized to work here?", answers)
	require.True(t, ok)
	assert.Equal(t, "generic", got)
}

func TestMatchAnswer_MixedCaseKey(t *testing.T) {
	got, ok := MatchAnswer("visa sponsorship required?", config.OrderedMap{{Key: "Sponsorship", Value: "No"}})
	require.True(t, ok)
	assert.Equal(t, "No", got)
}

func TestSelectResume(t *testing.T) {
	mapping := config.OrderedMap{{Key: "engineer", Value: "eng.pdf"}}

	assert.Equal(t, "eng.pdf", SelectResume("Senior Backend Engineer", mapping, config.DefaultResumePath))
	assert.Equal(t, "resumes/default_resume.pdf", SelectResume("Manager", mapping, config.DefaultResumePath))
	assert.Equal(t, config.DefaultResumePath, SelectResume("", nil, config.DefaultResumePath))

	ordered := config.OrderedMap{{Key: "backend", Value: "backend.pdf"}, {Key: "engineer", Value: "eng.pdf"}}
	assert.Equal(t, "backend.pdf", SelectResume("Backend Engineer", ordered, "default.pdf"))
}

// ==========================
// Field Policy Tests
// ==========================

func TestApplyAnswer_TextInput(t *testing.T) {
	ctx := context.Background()

	empty := browsertest.Input("text", "q1")
	action, err := ApplyAnswer(ctx, empty, "5")
	require.NoError(t, err)
	assert.Equal(t, ActionTyped, action)
	assert.Equal(t, "5", empty.Current)

	prefilled := browsertest.Input("email", "q2")
	prefilled.Current = "me@example.com"
	action, err = ApplyAnswer(ctx, prefilled, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, action)
	assert.Equal(t, "me@example.com", prefilled.Current)

	untyped := browsertest.NewElement("input", "")
	action, err = ApplyAnswer(ctx, untyped, "Toronto")
	require.NoError(t, err)
	assert.Equal(t, ActionTyped, action)
}

func TestApplyAnswer_Radio(t *testing.T) {
	ctx := context.Background()

	yes := browsertest.Input("radio", "r1").WithAttr("value", "Yes, I am")
	action, err := ApplyAnswer(ctx, yes, "yes")
	require.NoError(t, err)
	assert.Equal(t, ActionClicked, action)
	assert.Equal(t, 1, yes.Clicks)

	no := browsertest.Input("radio", "r2").WithAttr("value", "No")
	action, err = ApplyAnswer(ctx, no, "yes")
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, action)
	assert.Zero(t, no.Clicks)
}

func TestApplyAnswer_Checkbox(t *testing.T) {
	ctx := context.Background()

	for _, answer := range []string{"Yes", "yes", " YES "} {
		box := browsertest.Input("checkbox", "c1")
		action, err := ApplyAnswer(ctx, box, answer)
		require.NoError(t, err)
		assert.Equal(t, ActionClicked, action, answer)
		assert.Equal(t, 1, box.Clicks)
	}

	for _, answer := range []string{"No", "y", "true"} {
		box := browsertest.Input("checkbox", "c2")
		action, err := ApplyAnswer(ctx, box, answer)
		require.NoError(t, err)
		assert.Equal(t, ActionSkipped, action, answer)
		assert.Zero(t, box.Clicks)
	}
}

func TestApplyAnswer_Select(t *testing.T) {
	ctx := context.Background()

	sel := browsertest.NewElement("select", "")
	sel.Options = []string{"Select an option", "Canada", "United States"}

	action, err := ApplyAnswer(ctx, sel, "Canada")
	require.NoError(t, err)
	assert.Equal(t, ActionSelected, action)
	assert.Equal(t, "Canada", sel.Selected)

	// exact text only
	_, err = ApplyAnswer(ctx, sel, "canada")
	assert.True(t, errors.Is(err, browser.ErrOptionNotFound))
}

func TestApplyAnswer_Textarea(t *testing.T) {
	ctx := context.Background()

	area := browsertest.NewElement("textarea", "")
	action, err := ApplyAnswer(ctx, area, "cover letter")
	require.NoError(t, err)
	assert.Equal(t, ActionTyped, action)

	action, err = ApplyAnswer(ctx, area, "again")
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, action)
	assert.Equal(t, "cover letter", area.Current)
}

func TestApplyAnswer_UnknownControl(t *testing.T) {
	action, err := ApplyAnswer(context.Background(), browsertest.Input("file", "f"), "x")
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, action)

	action, err = ApplyAnswer(context.Background(), browsertest.NewElement("div", ""), "x")
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, action)
}

// ==========================
// FillFields Tests
// ==========================

func TestHandler_FillFields(t *testing.T) {
	driver := browsertest.NewDriver()
	h := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	years := browsertest.Input("text", "years-input")
	authorized := browsertest.Input("radio", "auth-yes").WithAttr("value", "Yes")
	country := browsertest.NewElement("select", "")
	country.Options = []string{"Canada", "Mexico"}
	cover := browsertest.NewElement("textarea", "")
	cover.Current = "already written"

	driver.Set(browser.CSS("label"),
		label("How many years of Go?", "years-input"),
		label("Are you authorized to work in Canada?", "auth-yes"),
		label("Country", "country-select"),
		label("Cover letter", "cover-text"),
		// no answer
		label("Favourite colour", "colour"),
		// control missing
		label("Years managing people", "gone"),
		// no for attribute
		browsertest.NewElement("label", "Sponsorship needed?"),
	)
	driver.Set(browser.ID("years-input"), years)
	driver.Set(browser.ID("auth-yes"), authorized)
	driver.Set(browser.ID("country-select"), country)
	driver.Set(browser.ID("cover-text"), cover)

	out, err := h.FillFields(context.Background(), driver)
	require.NoError(t, err)

	assert.Equal(t, 7, out.Labels)
	assert.Equal(t, 5, out.Matched)
	assert.Equal(t, 3, out.Filled)
	assert.Equal(t, 1, out.Failed)

	assert.Equal(t, "5", years.Current)
	assert.Equal(t, 1, authorized.Clicks)
	assert.Equal(t, "Canada", country.Selected)
	assert.Equal(t, "already written", cover.Current)
}

func TestHandler_FillFields_NoLabels(t *testing.T) {
	h := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	out, err := h.FillFields(context.Background(), browsertest.NewDriver())
	require.NoError(t, err)
	assert.Equal(t, &Output{}, out)
}

func TestHandler_Resume(t *testing.T) {
	h := NewHandler(createTestConfig(), logger.NewNoOpLogger())
	assert.Equal(t, "eng.pdf", h.Resume("Staff Software Engineer"))
	assert.Equal(t, "backend.pdf", h.Resume("Backend Developer"))
	assert.Equal(t, config.DefaultResumePath, h.Resume("Product Manager"))
}

func TestLoadConfig_DefaultResume(t *testing.T) {
	c := LoadConfig(&config.Config{})
	assert.Equal(t, config.DefaultResumePath, c.DefaultResume)

	c = LoadConfig(&config.Config{DefaultResume: "cv.pdf"})
	assert.Equal(t, "cv.pdf", c.DefaultResume)
}
