package workitem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/aps-automation/pkg/automation"
)

func testWorkItem() (*automation.WorkItem, *automation.InputParameter, *automation.OutputParameter, *automation.UploadInputParameter) {
	in := &automation.InputParameter{
		ParameterSpec: automation.ParameterSpec{Name: "inputFile", LocalName: "input.rvt", Verb: automation.VerbGet},
		Storage:       automation.Storage{Bucket: "b"},
	}
	out := &automation.OutputParameter{
		ParameterSpec: automation.ParameterSpec{Name: "result", LocalName: "result.json", Verb: automation.VerbPut},
		Storage:       automation.Storage{Bucket: "b", Object: "fixed.json"},
	}
	upload := &automation.UploadInputParameter{
		ParameterSpec: automation.ParameterSpec{Name: "extra", LocalName: "extra.rvt", Verb: automation.VerbGet},
	}
	params := &automation.JSONParameter{
		ParameterSpec: automation.ParameterSpec{Name: "params", LocalName: "params.json", Verb: automation.VerbGet},
	}
	wi := &automation.WorkItem{
		ActivityID: "nick.A+prod",
		Parameters: []automation.Parameter{in, out, upload, params},
	}
	return wi, in, out, upload
}

func TestAssignTransfers(t *testing.T) {
	wi, in, out, upload := testWorkItem()

	tr, err := assignTransfers(wi,
		map[string]string{"inputFile": "local.rvt", "extra": "/tmp/extra.rvt"},
		map[string]string{"result": "out/result.json"},
	)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(in.Object, "-input.rvt"), in.Object)
	assert.Equal(t, "local.rvt", tr.uploads[in])
	assert.Equal(t, "fixed.json", out.Object)
	assert.Equal(t, "out/result.json", tr.downloads[out])
	assert.Equal(t, "/tmp/extra.rvt", upload.LocalPath)
}

func TestAssignTransfers_Errors(t *testing.T) {
	tests := []struct {
		name      string
		uploads   map[string]string
		downloads map[string]string
	}{
		{name: "unknown upload", uploads: map[string]string{"missing": "x"}},
		{name: "upload to output", uploads: map[string]string{"result": "x"}},
		{name: "upload to json", uploads: map[string]string{"params": "x"}},
		{name: "download from input", downloads: map[string]string{"inputFile": "x"}},
		{name: "unknown download", downloads: map[string]string{"missing": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wi, _, _, _ := testWorkItem()
			_, err := assignTransfers(wi, tt.uploads, tt.downloads)
			assert.Error(t, err)
		})
	}
}
