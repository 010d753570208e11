package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStyle(t *testing.T) {
	tests := []struct {
		name  string
		style string
		want  string
	}{
		{
			name:  "values replaced",
			style: "color: red; font-weight: bold",
			want:  "color: value; font-weight: value",
		},
		{
			name:  "different values share a signature",
			style: "color: blue; font-weight: normal",
			want:  "color: value; font-weight: value",
		},
		{
			name:  "case folded and trimmed",
			style: "  COLOR: Red  ",
			want:  "color: value",
		},
		{
			name:  "trailing semicolon kept in shape",
			style: "margin: 0;",
			want:  "margin: value;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStyle(tt.style))
		})
	}
}

func TestNormalizeStyle_Idempotent(t *testing.T) {
	styles := []string{
		"color: red",
		"margin: 10px; padding: 2px",
		"filter: alpha(opacity=50)",
	}
	for _, s := range styles {
		once := NormalizeStyle(s)
		assert.Equal(t, once, NormalizeStyle(once))
	}
}

func TestIsIEHack(t *testing.T) {
	tests := []struct {
		name  string
		style string
		want  bool
	}{
		{name: "filter property", style: "filter: alpha(opacity=50)", want: true},
		{name: "zoom property", style: "zoom: 1", want: true},
		{name: "star prefix", style: "*width: 100px", want: true},
		{name: "underscore prefix", style: "_height: 20px", want: true},
		{name: "plain style", style: "color: red; font-size: 12px", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIEHack(tt.style))
		})
	}
}

func TestCatalog_Classification(t *testing.T) {
	catalog := NewCatalog()
	catalog.AddMarkup(`<html><body>
<span style="color: red; font-weight: bold">alpha</span>
<span style="color: blue; font-weight: bold">beta</span>
<span style="color: green; font-weight: bold">gamma</span>
<td style="text-align: right">42.50</td>
<div style="margin-top: 10px">layout</div>
<p style="letter-spacing: 2px">once</p>
</body></html>`)

	a := catalog.Analyze()

	assert.Equal(t, 6, a.TotalInlineStyles)
	assert.Equal(t, 3, a.Repetitive, "value-varying repeats share a signature")
	assert.Equal(t, 1, a.DataDriven, "numeric content marks the group data-driven")
	assert.Equal(t, 1, a.Positioning)
	assert.Equal(t, 1, a.Unique)

	require.Len(t, a.Patterns[CategoryRepetitive], 1)
	group := a.Patterns[CategoryRepetitive][0]
	assert.Equal(t, "color: value; font-weight: value", group.Signature)
	assert.Equal(t, 3, group.Count)
	assert.Equal(t, "color: red; font-weight: bold", group.Example, "example is the first occurrence")
}

func TestCatalog_DataDrivenBeatsRepetitive(t *testing.T) {
	// The same signature repeated, but its first occurrence carries numeric
	// content: the whole group is data-driven, never repetitive.
	catalog := NewCatalog()
	catalog.AddMarkup(`<div>
<span style="color: red">-12.50</span>
<span style="color: blue">$40</span>
<span style="color: green">+7</span>
</div>`)

	a := catalog.Analyze()
	assert.Equal(t, 3, a.DataDriven)
	assert.Equal(t, 0, a.Repetitive)
}

func TestCatalog_ChildWrappedNumericContent(t *testing.T) {
	// Numeric content nested inside child elements still counts as the
	// styled element's text, so these cells stay data-driven.
	catalog := NewCatalog()
	catalog.AddMarkup(`<table><tr>
<td style="color: red"><b>42</b></td>
<td style="color: blue"><span><em>-17.25</em></span></td>
</tr></table>`)

	a := catalog.Analyze()
	assert.Equal(t, 2, a.DataDriven)
	assert.Equal(t, 0, a.Repetitive)
}

func TestCatalog_UnclosedStyledElement(t *testing.T) {
	catalog := NewCatalog()
	catalog.AddMarkup(`<div><span style="color: red">dangling 42`)

	a := catalog.Analyze()
	assert.Equal(t, 1, a.TotalInlineStyles)
	assert.Equal(t, 1, a.DataDriven, "text after the last tag still reaches the open element")
}

func TestCatalog_InjectedChromeSkipped(t *testing.T) {
	catalog := NewCatalog()
	catalog.AddMarkup(`<body>
<div id="globalHeader"><span style="color: red">skip me</span></div>
<div id="metricsPanel" style="width: 200px">skip me too</div>
<span style="color: red">count me</span>
</body>`)

	a := catalog.Analyze()
	assert.Equal(t, 1, a.TotalInlineStyles, "styles on or inside injected chrome never count")
}

func TestCatalog_LegacyMarkupCounts(t *testing.T) {
	catalog := NewCatalog()
	catalog.AddMarkup(`<body>
<font size="3" color="red">old text</font>
<style type="text/css">.x { color: red; }</style>
<div style="filter: alpha(opacity=50)">legacy</div>
<div style="zoom: 1">more legacy</div>
</body>`)

	a := catalog.Analyze()
	assert.Equal(t, 1, a.FontTags)
	assert.Equal(t, 1, a.StyleBlocks)
	assert.Equal(t, 2, a.IEHacks)
}

func TestCatalog_PatternsSortedByCount(t *testing.T) {
	catalog := NewCatalog()
	catalog.AddMarkup(`<div>
<span style="font-size: 9px">a</span>
<span style="font-size: 8px">b</span>
<b style="color: red; border: none">c</b>
<b style="color: blue; border: solid">d</b>
<b style="color: green; border: dotted">e</b>
</div>`)

	a := catalog.Analyze()
	groups := a.Patterns[CategoryRepetitive]
	require.Len(t, groups, 2)
	assert.Equal(t, "color: value; border: value", groups[0].Signature)
	assert.Equal(t, 3, groups[0].Count)
	assert.Equal(t, "font-size: value", groups[1].Signature)
	assert.Equal(t, 2, groups[1].Count)
}

func TestCatalog_TableCellContext(t *testing.T) {
	catalog := NewCatalog()
	catalog.AddMarkup(`<table><tr><td><em style="font-style: italic">note</em></td></tr></table>`)

	a := catalog.Analyze()
	require.Len(t, a.Patterns[CategoryUnique], 1)
	assert.Equal(t, 1, a.Unique)
}
