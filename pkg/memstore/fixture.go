package memstore

import (
	"github.com/tracelab/entiq/pkg/types"
)

// SimpleStuff builds the store used across the test suites: a small lab
// inventory where a full-text search for "simple stuff" finds exactly seven
// entities, three samples by their comment property and four experiments by
// their description.
func SimpleStuff() *Store {
	s := New()

	s.Define(types.KindSample, "comment", types.PropertyTypeText)
	s.Define(types.KindSample, "size", types.PropertyTypeInteger)
	s.Define(types.KindSample, "shipped", types.PropertyTypeDate)
	s.Define(types.KindExperiment, "description", types.PropertyTypeText)

	s.Put(Entity{
		Ref: types.EntityRef{Kind: types.KindSpace, ID: "CISD"},
		Attributes: map[string]types.Value{
			"code":       types.TextValue("CISD"),
			"identifier": types.TextValue("/CISD"),
		},
	})

	projects := map[string]string{
		"DEFAULT": "/CISD/DEFAULT",
		"NEMO":    "/CISD/NEMO",
	}
	for code, identifier := range projects {
		ref := types.EntityRef{Kind: types.KindProject, ID: identifier}
		s.Put(Entity{
			Ref: ref,
			Attributes: map[string]types.Value{
				"code":       types.TextValue(code),
				"identifier": types.TextValue(identifier),
			},
		})
		s.Relate(ref, "space", types.EntityRef{Kind: types.KindSpace, ID: "CISD"})
	}

	experiments := []struct {
		permID, identifier, code, project, description string
	}{
		{"200902091255058-1035", "/CISD/DEFAULT/EXP-Y", "EXP-Y", "/CISD/DEFAULT", "A simple experiment"},
		{"200811050951882-1028", "/CISD/NEMO/EXP1", "EXP1", "/CISD/NEMO", "A simple experiment"},
		{"200811050952663-1029", "/CISD/NEMO/EXP10", "EXP10", "/CISD/NEMO", "A simple experiment"},
		{"200811050952663-1030", "/CISD/NEMO/EXP11", "EXP11", "/CISD/NEMO", "A simple experiment"},
	}
	for _, exp := range experiments {
		ref := types.EntityRef{Kind: types.KindExperiment, ID: exp.permID}
		s.Put(Entity{
			Ref: ref,
			Attributes: map[string]types.Value{
				"code":       types.TextValue(exp.code),
				"permId":     types.TextValue(exp.permID),
				"identifier": types.TextValue(exp.identifier),
			},
			Properties: map[string]types.Value{
				"description": types.TextValue(exp.description),
			},
		})
		s.Relate(ref, "project", types.EntityRef{Kind: types.KindProject, ID: exp.project})
	}

	samples := []struct {
		permID, identifier, code, experiment, comment string
		size                                          int64
	}{
		{"200902091219327-1025", "/CISD/CP-TEST-1", "CP-TEST-1", "200811050952663-1029", "very advanced stuff", 123},
		{"200902091250077-1026", "/CISD/CP-TEST-2", "CP-TEST-2", "200811050951882-1028", "extremely simple stuff", 321},
		{"200902091225616-1027", "/CISD/CP-TEST-3", "CP-TEST-3", "200811050951882-1028", "stuff like others", 666},
	}
	for _, smp := range samples {
		ref := types.EntityRef{Kind: types.KindSample, ID: smp.permID}
		s.Put(Entity{
			Ref: ref,
			Attributes: map[string]types.Value{
				"code":       types.TextValue(smp.code),
				"permId":     types.TextValue(smp.permID),
				"identifier": types.TextValue(smp.identifier),
			},
			Properties: map[string]types.Value{
				"comment": types.TextValue(smp.comment),
				"size":    types.IntegerValue(smp.size),
			},
		})
		s.Relate(ref, "experiment", types.EntityRef{Kind: types.KindExperiment, ID: smp.experiment})
		s.Relate(ref, "space", types.EntityRef{Kind: types.KindSpace, ID: "CISD"})
		s.Relate(types.EntityRef{Kind: types.KindExperiment, ID: smp.experiment}, "samples", ref)
	}

	return s
}
