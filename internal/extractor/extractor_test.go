package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"double quoted", `<a href="http://x.com/p2">go</a>`, []string{"http://x.com/p2"}},
		{"single quoted", `<a href='/about'>about</a>`, []string{"/about"}},
		{"several on one line", `<a href="a.html">a</a> | <a href='b.html'>b</a>`, []string{"a.html", "b.html"}},
		{"link tag counts too", `<link rel="stylesheet" href="main.css">`, []string{"main.css"}},
		{"mismatched quotes", `<a href="oops'>x</a>`, nil},
		{"empty payload", `<a href="">x</a>`, nil},
		{"no tags", `just some text`, nil},
		{"unquoted is missed", `<a href=/plain>x</a>`, nil},
		{"duplicates preserved", `<a href="x">1</a><a href="x">2</a>`, []string{"x", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLinks(tt.line))
		})
	}
}

func TestExtractImages(t *testing.T) {
	const owner = "http://x.com/p1"

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"relative", `<img src="pic.png">`, []string{"http://x.com/p1/pic.png"}},
		{"absolute", `<img src="http://y.com/pic.png">`, []string{"http://y.com/pic.png"}},
		{"https is absolute", `<img src="https://y.com/a.jpg">`, []string{"https://y.com/a.jpg"}},
		{"attributes before src", `<img class="hero" alt='x' src='logo.gif' width="10">`, []string{"http://x.com/p1/logo.gif"}},
		{"two images", `<img src="a.png"><img src="b.png">`, []string{"http://x.com/p1/a.png", "http://x.com/p1/b.png"}},
		{"root relative is prefixed verbatim", `<img src="/static/a.png">`, []string{"http://x.com/p1//static/a.png"}},
		{"img without whitespace", `<imgsrc="a.png">`, nil},
		{"not an img", `<script src="app.js"></script>`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractImages(tt.line, owner))
		})
	}
}

func TestMarkup(t *testing.T) {
	m := Markup{}

	assert.Equal(t, []string{"http://x.com/p2"}, m.Links(`<a href="http://x.com/p2">go</a>`))
	assert.Equal(t, []string{"/plain"}, m.Links(`<a href=/plain>x</a>`))
	assert.Nil(t, m.Links("no markup here"))

	assert.Equal(t,
		[]string{"http://x.com/p1/pic.png", "http://y.com/pic.png"},
		m.Images(`<img src="pic.png"> <img alt="" src="http://y.com/pic.png">`, "http://x.com/p1"),
	)
	assert.Nil(t, m.Images(`<p>nothing</p>`, "http://x.com/p1"))
}

func TestNew(t *testing.T) {
	ex, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Pattern{}, ex)

	ex, err = New(StrategyMarkup)
	require.NoError(t, err)
	assert.IsType(t, Markup{}, ex)

	_, err = New("xpath")
	assert.Error(t, err)
}
