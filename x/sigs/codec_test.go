package sigs

import (
	"io/ioutil"
	"testing"

	"github.com/iov-one/harvest/migration"
)

func TestCodecDeclarations(t *testing.T) {
	src, err := ioutil.ReadFile("codec.proto")
	if err != nil {
		t.Fatalf("cannot read codec.proto: %s", err)
	}
	models := map[string]interface{}{
		"UserData":     &UserData{},
		"StdSignature": &StdSignature{},
	}
	for name, model := range models {
		model := model
		t.Run(name, func(t *testing.T) {
			if err := migration.CheckDeclared(model, src); err != nil {
				t.Fatalf("codec.proto out of date: %s", err)
			}
		})
	}
}
