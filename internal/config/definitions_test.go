package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/aps-automation/pkg/automation"
)

const testDefinitions = `
appbundle "WallCounter" {
  engine      = "Autodesk.Revit+2024"
  alias       = "prod"
  zip_path    = "build/WallCounter.zip"
  description = "Counts walls"
}

activity "CountWalls" {
  engine             = "Autodesk.Revit+2024"
  appbundle          = "WallCounter"
  appbundle_alias    = "prod"
  alias              = "prod"
  revit_command_line = true

  parameter "inputFile" {
    kind         = "input"
    local_name   = "input.rvt"
    engine_input = true
    bucket       = "my-bucket"
    object       = "model.rvt"
  }

  parameter "params" {
    kind       = "json"
    local_name = "params.json"
    content    = <<EOT
{"walls": true}
EOT
  }

  parameter "result" {
    kind       = "output"
    local_name = "result.json"
    bucket     = "my-bucket"
    object     = "result.json"
  }
}

activity "AccWalls" {
  appbundle = "other.WallCounter+prod"
  alias     = "prod"

  parameter "model" {
    kind       = "delegated_input"
    local_name = "model.rvt"
    project_id = "b.p1"
    item_id    = "urn:item"
  }

  parameter "upload" {
    kind       = "upload_input"
    local_name = "extra.rvt"
    project_id = "b.p1"
    folder_id  = "urn:folder"
    file_name  = "extra.rvt"
    local_path = "extra.rvt"
  }

  parameter "result" {
    kind       = "delegated_output"
    local_name = "out.rvt"
    project_id = "b.p1"
    folder_id  = "urn:folder"
    file_name  = "out.rvt"
  }
}

workitem "count" {
  activity = "CountWalls"
}

workitem "acc" {
  activity    = "AccWalls"
  mode        = "delegated"
  activity_id = "other.AccWalls+prod"
  signature   = "sig"
}
`

func TestParseDefinitions(t *testing.T) {
	defs, err := ParseDefinitions("defs.hcl", []byte(testDefinitions))
	require.NoError(t, err)

	bundleDef, err := defs.AppBundle("WallCounter")
	require.NoError(t, err)
	bundle := bundleDef.Build()
	assert.Equal(t, "WallCounter", bundle.ID)
	assert.Equal(t, "build/WallCounter.zip", bundle.ZipPath)
	assert.NoError(t, bundle.Validate())

	activityDef, err := defs.Activity("CountWalls")
	require.NoError(t, err)
	activity, err := activityDef.Build("nick")
	require.NoError(t, err)

	assert.Equal(t, "nick.WallCounter+prod", activity.AppBundle)
	assert.Equal(t, []string{
		`$(engine.path)\revitcoreconsole.exe /i "$(args[inputFile].path)" /al "$(appbundles[WallCounter].path)"`,
	}, activity.CommandLine)
	require.Len(t, activity.Parameters, 3)
	assert.NoError(t, activity.Validate())

	input := activity.Parameters[0].(*automation.InputParameter)
	assert.Equal(t, automation.VerbGet, input.Verb)
	assert.True(t, input.EngineInput)
	assert.Equal(t, "my-bucket", input.Bucket)

	params := activity.Parameters[1].(*automation.JSONParameter)
	assert.Equal(t, map[string]interface{}{"walls": true}, params.Content)

	output := activity.Parameters[2].(*automation.OutputParameter)
	assert.Equal(t, automation.VerbPut, output.Verb)

	wiDef, err := defs.WorkItem("count")
	require.NoError(t, err)
	wi, err := wiDef.Build("nick", activity)
	require.NoError(t, err)
	assert.Equal(t, "nick.CountWalls+prod", wi.ActivityID)
	assert.Equal(t, automation.TwoLegged, wi.Mode)
	assert.Len(t, wi.Parameters, 3)
}

func TestParseDefinitions_Delegated(t *testing.T) {
	defs, err := ParseDefinitions("defs.hcl", []byte(testDefinitions))
	require.NoError(t, err)

	activityDef, err := defs.Activity("AccWalls")
	require.NoError(t, err)
	activity, err := activityDef.Build("nick")
	require.NoError(t, err)

	assert.Equal(t, "other.WallCounter+prod", activity.AppBundle)
	assert.IsType(t, &automation.DelegatedInputParameter{}, activity.Parameters[0])
	assert.IsType(t, &automation.UploadInputParameter{}, activity.Parameters[1])
	assert.IsType(t, &automation.DelegatedOutputParameter{}, activity.Parameters[2])

	wiDef, err := defs.WorkItem("acc")
	require.NoError(t, err)
	wi, err := wiDef.Build("nick", activity)
	require.NoError(t, err)
	assert.Equal(t, "other.AccWalls+prod", wi.ActivityID)
	assert.Equal(t, automation.Delegated, wi.Mode)
	assert.Equal(t, "sig", wi.Signature)
}

func TestParseDefinitions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "unknown kind",
			src: `activity "A" {
  appbundle = "B"
  alias     = "prod"
  parameter "p" {
    kind       = "bogus"
    local_name = "p"
  }
}`,
		},
		{
			name: "bad verb",
			src: `activity "A" {
  appbundle = "B"
  alias     = "prod"
  parameter "p" {
    kind       = "input"
    local_name = "p"
    verb       = "patch"
  }
}`,
		},
		{
			name: "json content is not an object",
			src: `activity "A" {
  appbundle = "B"
  alias     = "prod"
  parameter "p" {
    kind       = "json"
    local_name = "p"
    content    = "[1]"
  }
}`,
		},
		{
			name: "work item references unknown activity",
			src:  `workitem "w" { activity = "missing" }`,
		},
		{
			name: "work item with unknown mode",
			src: `activity "A" {
  appbundle = "B"
  alias     = "prod"
}
workitem "w" {
  activity = "A"
  mode     = "three-legged"
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinitions("defs.hcl", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestActivityDef_BuildNoEngineInput(t *testing.T) {
	def := &ActivityDef{
		Name:             "A",
		AppBundle:        "B",
		Alias:            "prod",
		RevitCommandLine: true,
		Parameters: []ParameterDef{
			{Name: "in", Kind: KindInput, LocalName: "in.rvt"},
		},
	}

	_, err := def.Build("nick")
	assert.ErrorIs(t, err, automation.ErrEngineInput)
}

func TestDefinitions_Lookup(t *testing.T) {
	defs := &Definitions{}
	_, err := defs.Activity("x")
	assert.Error(t, err)
	_, err = defs.AppBundle("x")
	assert.Error(t, err)
	_, err = defs.WorkItem("x")
	assert.Error(t, err)
}
