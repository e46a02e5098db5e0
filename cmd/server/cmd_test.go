package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/agri-api/internal/vocab"
)

func TestLabelsCommand(t *testing.T) {
	var out bytes.Buffer
	labelsCmd.SetOut(&out)
	require.NoError(t, labelsCmd.RunE(labelsCmd, nil))

	text := out.String()
	assert.Contains(t, text, "Tomato: Late blight")
	assert.Contains(t, text, "Watermelon")
	assert.Equal(t, vocab.NumDiseases+vocab.NumCrops+3, strings.Count(text, "\n"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.True(t, strings.HasPrefix(out.String(), "agri-api dev"))
}

func TestRecommendDefaultsAreValid(t *testing.T) {
	assert.NoError(t, sample.Validate())
	assert.Equal(t, "6.5", recommendCmd.Flags().Lookup("ph").DefValue)
}
