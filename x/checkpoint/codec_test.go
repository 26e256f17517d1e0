package checkpoint

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
		"Checkpoint":    &Checkpoint{},
		"VoteReceipt":   &VoteReceipt{},
		"Due":           &Due{},
		"Configuration": &Configuration{},
		"ScheduleMsg":   &ScheduleMsg{},
		"VoteMsg":       &VoteMsg{},
		"FinalizeMsg":   &FinalizeMsg{},
		"ExecuteMsg":    &ExecuteMsg{},
		"CancelMsg":     &CancelMsg{},
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
