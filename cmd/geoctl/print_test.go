package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
)

func TestPrintResults(t *testing.T) {
	color.NoColor = true

	s := evaluation.Session{
		Status: evaluation.StatusCompleted,
		Results: []evaluation.Result{
			{ID: "1", Category: "Brand", Question: "Who sells\nwidgets?", FullAnswer: "Acme does", Found: true},
			{ID: "2", Category: "Local", Question: "Best shop?", FullAnswer: "Someone else"},
			{ID: "3", Category: "Local", Question: "Unasked"},
		},
	}

	var buf bytes.Buffer
	printResults(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "FOUND  1. [Brand] Who sells widgets?")
	assert.Contains(t, out, "MISS   2. [Local] Best shop?")
	assert.Contains(t, out, "----   3. [Local] Unasked")
	assert.Contains(t, out, "Visibility score: ")
}

func TestPrintProjectsEmpty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printProjects(&buf, evaluation.Company{Name: "Acme"}, nil)
	assert.Equal(t, "Acme\nNo projects yet\n", buf.String())
}

func TestLocationAndOneLine(t *testing.T) {
	assert.Equal(t, "USA", location("USA", ""))
	assert.Equal(t, "TX, USA", location("USA", "TX"))

	long := bytes.Repeat([]byte("a"), 120)
	assert.Len(t, oneLine(string(long)), 90)
}
