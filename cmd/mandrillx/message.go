package main

import (
	"context"
	"os"

	"github.com/Abraxas-365/mandrillx/pkg/fsx"
	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"gopkg.in/yaml.v3"
)

// messageFile is the YAML form of a message. Attach lists paths read from
// the configured file storage.
type messageFile struct {
	mandrillx.Message `yaml:",inline"`
	Attach            []string `yaml:"attach,omitempty"`
}

func loadMessage(ctx context.Context, path string, files func(context.Context) (fsx.FileReader, error)) (*mandrillx.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var mf messageFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, err
	}

	msg := mf.Message
	if len(mf.Attach) == 0 {
		return &msg, nil
	}

	reader, err := files(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range mf.Attach {
		att, err := mandrillx.LoadAttachment(ctx, reader, name)
		if err != nil {
			return nil, err
		}
		msg.Attachments = append(msg.Attachments, att)
	}
	return &msg, nil
}

// applyFrom fills From from the configured sender address.
func applyFrom(msg *mandrillx.Message, from string) {
	if msg.From == "" {
		msg.From = from
	}
}
