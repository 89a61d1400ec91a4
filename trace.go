package params

import (
	"encoding/json"

	"github.com/goliatone/go-params/layering"
	"github.com/goliatone/go-params/resolve"
)

// ResolutionSource names where a field read was served from.
type ResolutionSource string

const (
	SourceComputed ResolutionSource = "computed"
	SourceStored   ResolutionSource = "stored"
	SourceAbsent   ResolutionSource = "absent"
	SourceControl  ResolutionSource = "control"
)

// Resolution explains how a single field resolves on an object.
type Resolution struct {
	Field  string           `json:"field"`
	Source ResolutionSource `json:"source"`
	Getter string           `json:"getter,omitempty"`
	Value  any              `json:"value,omitempty"`
	Stored any              `json:"stored,omitempty"`
	Found  bool             `json:"found"`
}

// Trace reports how field resolves without modifying the object.
func (o *Object) Trace(field string) Resolution {
	res := Resolution{Field: field, Source: SourceAbsent}
	if o == nil {
		return res
	}
	if controlFields.Has(field) {
		res.Source = SourceControl
		return res
	}
	stored, hasStored := o.Slot(field)
	if hasStored {
		res.Stored = layering.Clone(stored)
	}
	if o.schema.resolver.HasGetter(field) {
		value, _ := o.schema.resolver.Read(o, field)
		res.Source = SourceComputed
		res.Getter = resolve.GetterName(field)
		res.Value = layering.Clone(value)
		res.Found = true
		return res
	}
	if hasStored {
		res.Source = SourceStored
		res.Value = res.Stored
		res.Found = true
	}
	return res
}

// ToJSON serialises the resolution for logging or transport.
func (r Resolution) ToJSON() ([]byte, error) {
	type alias Resolution
	return json.Marshal(alias(r))
}

// ResolutionFromJSON decodes a payload produced by ToJSON.
func ResolutionFromJSON(payload []byte) (Resolution, error) {
	type alias Resolution
	var res alias
	if err := json.Unmarshal(payload, &res); err != nil {
		return Resolution{}, err
	}
	return Resolution(res), nil
}
