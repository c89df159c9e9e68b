package workitem

import (
	"fmt"
	"sort"

	"github.com/hashicorp-forge/aps-automation/pkg/automation"
)

// transfers are the local files moved before and after a run.
type transfers struct {
	// uploads are OSS inputs to upload before submitting, keyed by local
	// path.
	uploads map[*automation.InputParameter]string

	// downloads are OSS outputs to fetch after success.
	downloads map[*automation.OutputParameter]string
}

// assignTransfers matches name=path pairs to the work item's parameters.
// OSS parameters without an object key get a unique one. Upload inputs take
// the path as their local file.
func assignTransfers(wi *automation.WorkItem, uploads, downloads map[string]string) (*transfers, error) {
	t := &transfers{
		uploads:   make(map[*automation.InputParameter]string),
		downloads: make(map[*automation.OutputParameter]string),
	}

	byName := make(map[string]automation.Parameter, len(wi.Parameters))
	for _, p := range wi.Parameters {
		byName[p.Spec().Name] = p
	}

	for _, name := range sortedKeys(uploads) {
		path := uploads[name]
		switch p := byName[name].(type) {
		case *automation.InputParameter:
			if p.Object == "" {
				p.Object = automation.UniqueObjectKey(p.LocalName)
			}
			t.uploads[p] = path
		case *automation.UploadInputParameter:
			p.LocalPath = path
		case nil:
			return nil, fmt.Errorf("no parameter %q to upload to", name)
		default:
			return nil, fmt.Errorf("parameter %q is not an uploadable input", name)
		}
	}

	for _, name := range sortedKeys(downloads) {
		p, ok := byName[name].(*automation.OutputParameter)
		if !ok {
			return nil, fmt.Errorf("parameter %q is not a bucket output", name)
		}
		if p.Object == "" {
			p.Object = automation.UniqueObjectKey(p.LocalName)
		}
		t.downloads[p] = downloads[name]
	}

	return t, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
