package infrafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type document struct {
	Teachers []string          `json:"allTeachers"`
	Courses  []course          `json:"courses"`
	Scores   map[string]int    `json:"scores"`
	Labels   map[string]string `json:"labels"`
}

type course struct {
	ID       string `json:"id"`
	Lectures int    `json:"lecturesPerWeek"`
	Lab      bool   `json:"requiresLab"`
}

const sampleYAML = `
allTeachers: [Alice, Bob]
courses:
  - id: cse-3
    lecturesPerWeek: 3
    requiresLab: true
scores:
  Maths: 9
labels:
  1: first
`

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("college.yaml"))
	assert.Equal(t, FormatYAML, FormatOf("college.YML"))
	assert.Equal(t, FormatJSON, FormatOf("college.json"))
	assert.Equal(t, FormatJSON, FormatOf("college"))
}

func TestDecodeYAML(t *testing.T) {
	var doc document
	require.NoError(t, Decode(FormatYAML, []byte(sampleYAML), &doc))

	assert.Equal(t, []string{"Alice", "Bob"}, doc.Teachers)
	require.Len(t, doc.Courses, 1)
	assert.Equal(t, course{ID: "cse-3", Lectures: 3, Lab: true}, doc.Courses[0])
	assert.Equal(t, 9, doc.Scores["Maths"])
	assert.Equal(t, "first", doc.Labels["1"])
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	var doc document
	err := Decode(FormatYAML, []byte("allTeachers: [Alice]\nallRoom: [101]\n"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allRoom")

	err = Decode(FormatJSON, []byte(`{"allTeachers":["Alice"],"extra":1}`), &doc)
	require.Error(t, err)
}

func TestDecodeInvalidYAML(t *testing.T) {
	var doc document
	err := Decode(FormatYAML, []byte("allTeachers: [Alice\n"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yaml unmarshal")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "college.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"allTeachers":["Carol"]}`), 0o600))

	var doc document
	require.NoError(t, Load(path, &doc))
	assert.Equal(t, []string{"Carol"}, doc.Teachers)

	err := Load(filepath.Join(dir, "missing.yaml"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}
