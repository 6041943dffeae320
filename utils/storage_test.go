package utils

import (
	"testing"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/stretchr/testify/assert"
)

func TestExtractObjectKeyFromURL(t *testing.T) {
	cases := map[string]string{
		"client-1/receipts/a.jpg":                                       "client-1/receipts/a.jpg",
		"gs://bucket/client-1/receipts/a.jpg":                           "client-1/receipts/a.jpg",
		"https://storage.googleapis.com/bucket/client-1/receipts/a.jpg": "client-1/receipts/a.jpg",
		"https://bucket.storage.googleapis.com/client-1/a.jpg":          "client-1/a.jpg",
		"https://example.com/download?objectKey=client-1%2Fa.jpg":       "client-1/a.jpg",
		"client-1/../secret":                                            "",
		"":                                                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractObjectKeyFromURL(in), in)
	}
}

func TestBuildObjectAccessURL(t *testing.T) {
	prev := config.GetSettings()
	defer config.SetSettings(prev)

	s := *prev
	s.Storage.Bucket = "receipts"
	s.Storage.URL = "storage.googleapis.com"
	s.Storage.AccessBaseURL = ""
	config.SetSettings(&s)
	assert.Equal(t, "https://storage.googleapis.com/receipts/c1/a.jpg", BuildObjectAccessURL("c1/a.jpg"))

	s.Storage.AccessBaseURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/c1/a.jpg", BuildObjectAccessURL("c1/a.jpg"))
}
