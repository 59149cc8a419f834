package persistence

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cpinzonpinto/bing-search-provision-test/pkg/session"
)

func SaveTranscript(path string, res *session.Result) error {
	data, err := yaml.Marshal(NewTranscriptFromResult(res))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0640)
}

func LoadTranscript(path string) (*session.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Transcript
	if err = yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return NewResultFromTranscript(&t)
}
