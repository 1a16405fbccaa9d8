package vigi

import (
	"bytes"
	"encoding/json"

	"github.com/nao1215/vigireport/internal/model"
)

// Endpoint paths relative to the base URL.
const (
	searchPath       = "/protocol/IProtocol/search"
	distributionPath = "/protocol/IProtocol/distribution"
	primaryTermPath  = "/protocol/IProtocol/primaryTerm"
)

type encrypted struct {
	Encrypted string `json:"Encrypted"`
}

type drugRef struct {
	DrugID encrypted `json:"DrugId"`
}

type socRef struct {
	SocID encrypted `json:"SocId"`
}

// searchResult is one entry of the search response:
// {"DrugId":{"DrugId":{"Encrypted":"..."}}}.
type searchResult struct {
	DrugID drugRef `json:"DrugId"`
}

// distributionRequest is [{"DrugId":{"Encrypted":"..."}}].
type distributionRequest struct {
	DrugID encrypted `json:"DrugId"`
}

// primaryTermRequest asks for one page of terms inside a category.
type primaryTermRequest struct {
	DrugID drugRef `json:"DrugId"`
	SocID  socRef  `json:"SocId"`
	Page   int     `json:"Page"`
}

// label decodes either a plain string or {"Obfuscated":"..."}.
type label struct {
	Text       string
	Obfuscated bool
}

func (l *label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = label{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = label{Text: s}
		return nil
	}
	var obj struct {
		Obfuscated string `json:"Obfuscated"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*l = label{Text: obj.Obfuscated, Obfuscated: true}
	return nil
}

type countedLabel struct {
	Description label `json:"Description"`
	Count       int   `json:"Count"`
}

type reaction struct {
	Description label  `json:"Description"`
	Count       int    `json:"Count"`
	SocID       socRef `json:"SocId"`
}

type distributionResponse struct {
	TotalCount int            `json:"TotalCount"`
	Reaction   []reaction     `json:"Reaction"`
	Continent  []countedLabel `json:"Continent"`
	AgeGroup   []countedLabel `json:"AgeGroup"`
	Sex        []countedLabel `json:"Sex"`
	Year       []countedLabel `json:"Year"`
}

// primaryTermResponse leaves Pts nil when the key is absent.
type primaryTermResponse struct {
	Pts []countedLabel `json:"Pts"`
}

func (r *distributionResponse) toSummary() *model.Summary {
	s := &model.Summary{
		TotalCount: r.TotalCount,
		Reactions:  make([]model.Category, 0, len(r.Reaction)),
		Continent:  toRecords(r.Continent),
		AgeGroup:   toRecords(r.AgeGroup),
		Sex:        toRecords(r.Sex),
		Year:       toRecords(r.Year),
	}
	for _, re := range r.Reaction {
		s.Reactions = append(s.Reactions, model.Category{
			Description: re.Description.Text,
			Count:       re.Count,
			SocID:       re.SocID.SocID.Encrypted,
		})
	}
	return s
}

func toRecords(in []countedLabel) []model.Record {
	out := make([]model.Record, 0, len(in))
	for _, c := range in {
		out = append(out, model.Record{
			Description: c.Description.Text,
			Count:       c.Count,
			Obfuscated:  c.Description.Obfuscated,
		})
	}
	return out
}
