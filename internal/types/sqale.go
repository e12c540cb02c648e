package types

import "encoding/xml"

// SqaleModel is the scoring file consumed by the analysis host. It maps
// rule keys to remediation characteristics.
type SqaleModel struct {
	XMLName         xml.Name              `xml:"sqale"`
	Characteristics []SqaleCharacteristic `xml:"chc"`
}

type SqaleCharacteristic struct {
	Key             string                `xml:"key"`
	Name            string                `xml:"name,omitempty"`
	Characteristics []SqaleCharacteristic `xml:"chc,omitempty"`
	RuleRepoKey     string                `xml:"rule-repo,omitempty"`
	RuleKey         string                `xml:"rule-key,omitempty"`
	Properties      []SqaleProperty       `xml:"prop,omitempty"`
}

type SqaleProperty struct {
	Key   string  `xml:"key"`
	Value float64 `xml:"val,omitempty"`
	Text  string  `xml:"txt,omitempty"`
}
