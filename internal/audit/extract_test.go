package audit

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Joe's Pizza | Best Slice in Miami</title>
<meta name="description" content="Family-owned pizzeria serving Miami since 1982.">
<link rel="stylesheet" href="/main.css">
<link rel="stylesheet" href="/theme.css">
<script src="/app.js"></script>
</head>
<body>
<h1>Joe's Pizza</h1>
<div style="color:red">Open late</div>
<img src="/hero.jpg"><img src="/menu.jpg">
<script>console.log("hi")</script>
</body>
</html>`

func TestExtractSignals(t *testing.T) {
	var result model.AuditResult
	extractSignals(&result, samplePage)

	assert.True(t, result.HasViewport)
	assert.True(t, result.MobileReady)
	assert.True(t, result.HasTitle)
	assert.Equal(t, "Joe's Pizza | Best Slice in Miami", result.Title)
	assert.True(t, result.HasDesc)
	assert.Equal(t, "Family-owned pizzeria serving Miami since 1982.", result.Description)
	assert.Equal(t, 1, result.H1Count)
	assert.Equal(t, 2, result.ImageCount)
	assert.Equal(t, 2, result.ScriptCount)
	assert.Equal(t, 2, result.StyleSheets)
	assert.Equal(t, 1, result.InlineStyles)
}

func TestExtractSignalsDescriptionAttributeOrder(t *testing.T) {
	var result model.AuditResult
	extractSignals(&result, `<meta content="Reversed order works too." name="description">`)

	assert.True(t, result.HasDesc)
	assert.Equal(t, "Reversed order works too.", result.Description)
}

func TestExtractSignalsEmptyPage(t *testing.T) {
	var result model.AuditResult
	extractSignals(&result, "")

	assert.False(t, result.HasViewport)
	assert.False(t, result.HasTitle)
	assert.False(t, result.HasDesc)
	assert.Zero(t, result.H1Count)
}

func TestExtractSignalsTruncation(t *testing.T) {
	long := strings.Repeat("x", 500)
	var result model.AuditResult
	extractSignals(&result, "<title>"+long+"</title><meta name=\"description\" content=\""+long+"\">")

	assert.Len(t, result.Title, maxTitleChars)
	assert.Len(t, result.Description, maxDescChars)
}

func TestExtractSignalsTruncationKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("é", 500) // two bytes per rune
	var result model.AuditResult
	extractSignals(&result, "<title>"+long+"</title>")

	assert.True(t, utf8.ValidString(result.Title))
	assert.Equal(t, maxTitleChars, utf8.RuneCountInString(result.Title))
}

func TestExtractSignalsViewportWithoutDeviceWidth(t *testing.T) {
	var result model.AuditResult
	extractSignals(&result, `<meta name="viewport" content="initial-scale=1">`)

	assert.True(t, result.HasViewport)
	assert.False(t, result.MobileReady)
}
