package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

func TestShortAppBundleID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "nickname.MyBundle+prod", want: "MyBundle"},
		{in: "nickname.MyBundle", want: "MyBundle"},
		{in: "MyBundle+prod", want: "MyBundle"},
		{in: "MyBundle", want: "MyBundle"},
		{in: "nick.My.Bundle+prod+x", want: "My.Bundle"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortAppBundleID(tt.in))
		})
	}
}

func TestShortAppBundleID_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nickname := rapid.StringMatching(`[A-Za-z0-9_]{1,12}`).Draw(rt, "nickname")
		id := rapid.StringMatching(`[A-Za-z0-9_]{1,12}`).Draw(rt, "id")
		alias := rapid.StringMatching(`[A-Za-z0-9_\-]{1,12}`).Draw(rt, "alias")

		assert.Equal(rt, id, ShortAppBundleID(FullAlias(nickname, id, alias)))
		assert.Equal(rt, id, ShortAppBundleID(nickname+"."+id))
	})
}

func revitActivity(params ...Parameter) *Activity {
	return &Activity{
		ID:          "CountWalls",
		Parameters:  params,
		Engine:      "Autodesk.Revit+2024",
		AppBundle:   "nick.WallCounter+prod",
		Description: "Counts walls",
		Alias:       "prod",
	}
}

func TestSetRevitCommandLine(t *testing.T) {
	engineInput := &InputParameter{
		ParameterSpec: ParameterSpec{Name: "inputFile", LocalName: "input.rvt", Verb: VerbGet},
		Storage:       Storage{Bucket: "b", Object: "o"},
		EngineInput:   true,
	}
	otherInput := &InputParameter{
		ParameterSpec: ParameterSpec{Name: "settings", LocalName: "settings.rvt", Verb: VerbGet},
	}
	delegatedEngineInput := &DelegatedInputParameter{
		ParameterSpec: ParameterSpec{Name: "accFile", LocalName: "acc.rvt", Verb: VerbGet},
		EngineInput:   true,
	}
	output := &OutputParameter{
		ParameterSpec: ParameterSpec{Name: "result", LocalName: "result.json", Verb: VerbPut},
	}

	t.Run("one engine input", func(t *testing.T) {
		a := revitActivity(engineInput, otherInput, output)
		require.NoError(t, a.SetRevitCommandLine())
		assert.Equal(t, []string{
			`$(engine.path)\revitcoreconsole.exe /i "$(args[inputFile].path)" /al "$(appbundles[WallCounter].path)"`,
		}, a.CommandLine)
	})

	t.Run("delegated engine input", func(t *testing.T) {
		a := revitActivity(delegatedEngineInput, output)
		require.NoError(t, a.SetRevitCommandLine())
		assert.Contains(t, a.CommandLine[0], "$(args[accFile].path)")
	})

	t.Run("no engine input", func(t *testing.T) {
		a := revitActivity(otherInput, output)
		err := a.SetRevitCommandLine()
		assert.ErrorIs(t, err, ErrEngineInput)
		assert.Nil(t, a.CommandLine)
	})

	t.Run("two engine inputs", func(t *testing.T) {
		a := revitActivity(engineInput, delegatedEngineInput)
		assert.ErrorIs(t, a.SetRevitCommandLine(), ErrEngineInput)
	})
}

func TestActivity_Validate(t *testing.T) {
	valid := &JSONParameter{ParameterSpec: ParameterSpec{Name: "params", LocalName: "params.json", Verb: VerbGet}}

	assert.NoError(t, revitActivity(valid).Validate())

	a := revitActivity(valid, valid, &JSONParameter{ParameterSpec: ParameterSpec{Name: "bad"}})
	a.Alias = ""
	err := a.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias is required")
	assert.Contains(t, err.Error(), "duplicate parameter name")
	assert.Contains(t, err.Error(), `parameter "bad"`)
}

func TestActivity_ToAPI(t *testing.T) {
	a := revitActivity(
		&InputParameter{
			ParameterSpec: ParameterSpec{Name: "inputFile", LocalName: "input.rvt", Verb: VerbGet, Required: true},
			EngineInput:   true,
		},
		&JSONParameter{ParameterSpec: ParameterSpec{Name: "params", LocalName: "params.json", Verb: VerbGet}},
	)
	require.NoError(t, a.SetRevitCommandLine())

	doc := a.ToAPI()
	assert.Equal(t, "CountWalls", doc.ID)
	assert.Equal(t, "Autodesk.Revit+2024", doc.Engine)
	assert.Equal(t, []string{"nick.WallCounter+prod"}, doc.AppBundles)
	assert.Equal(t, a.CommandLine, doc.CommandLine)
	require.Len(t, doc.Parameters, 2)
	assert.True(t, doc.Parameters["inputFile"].Required)
	assert.Equal(t, "params.json", doc.Parameters["params"].LocalName)
}

func TestActivity_Deploy(t *testing.T) {
	fake, client := newFakeAPS(t)

	fake.HandleFunc("POST /da/us-east/v3/activities", func(w http.ResponseWriter, r *http.Request) {
		var body aps.Activity
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CountWalls", body.ID)
		body.Version = 1
		writeJSON(w, body)
	})
	fake.HandleFunc("POST /da/us-east/v3/activities/CountWalls/aliases", func(w http.ResponseWriter, r *http.Request) {
		var body aps.Alias
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, aps.Alias{ID: "prod", Version: 1}, body)
		writeJSON(w, body)
	})

	a := revitActivity(&JSONParameter{ParameterSpec: ParameterSpec{Name: "params", LocalName: "params.json", Verb: VerbGet}})
	require.NoError(t, a.Deploy(context.Background(), client, "tok"))
	assert.Equal(t, []string{
		"POST /da/us-east/v3/activities",
		"POST /da/us-east/v3/activities/CountWalls/aliases",
	}, fake.Calls())
	assert.Equal(t, "nick.CountWalls+prod", a.FullAlias("nick"))
}

func TestActivity_DeployInvalid(t *testing.T) {
	fake, client := newFakeAPS(t)

	a := revitActivity()
	a.ID = ""
	assert.Error(t, a.Deploy(context.Background(), client, "tok"))
	assert.Empty(t, fake.Calls())
}
