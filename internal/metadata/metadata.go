// Package metadata generates ERC-721 metadata for deposit certificates: one
// JSON document and one SVG image per reference plan plus a collection file,
// ready for upload to IPFS.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/Mohsinsiddi/savingctl/internal/deposit"
	"github.com/Mohsinsiddi/savingctl/internal/plan"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/sirupsen/logrus"
)

// CollectionFile is the name of the collection-level document.
const CollectionFile = "collection.json"

// Options control the text and links embedded in the metadata.
type Options struct {
	Name        string `default:"Savings Deposit Certificate"`
	Description string `default:"Certificate of a fixed-term stablecoin deposit."`
	ExternalURL string
	// ImageBaseURI prefixes image file names, e.g. "ipfs://<cid>/". The
	// placeholder is replaced once the images are pinned.
	ImageBaseURI string `default:"ipfs://REPLACE_WITH_IMAGES_CID/"`
}

// Attribute is one OpenSea-style trait.
type Attribute struct {
	TraitType   string `json:"trait_type"`
	Value       any    `json:"value"`
	DisplayType string `json:"display_type,omitempty"`
}

// Token is the metadata document of one certificate type.
type Token struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url,omitempty"`
	Attributes  []Attribute `json:"attributes"`
}

// Collection is the contract-level metadata document.
type Collection struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	ExternalLink string `json:"external_link,omitempty"`
}

// Generator renders metadata for the reference plans of a protocol.
type Generator struct {
	proto *protocol.Protocol
	opts  Options
	log   logrus.FieldLogger
}

// NewGenerator creates a Generator. Empty option fields fall back to defaults.
func NewGenerator(p *protocol.Protocol, opts Options, log logrus.FieldLogger) *Generator {
	applyDefaults(&opts)
	return &Generator{proto: p, opts: opts, log: log}
}

// Generate writes <id>.json and <id>.svg for every default plan (ids start
// at 1 in catalogue order) and collection.json into dir. It returns the
// written paths in order.
func (g *Generator) Generate(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	for i, def := range g.proto.DefaultPlans {
		id := strconv.Itoa(i + 1)

		svg, err := g.Image(i+1, def)
		if err != nil {
			return written, fmt.Errorf("plan %s image: %w", def.Name, err)
		}
		if err := write(id+".svg", svg); err != nil {
			return written, err
		}

		doc, err := marshal(g.Token(i+1, def))
		if err != nil {
			return written, err
		}
		if err := write(id+".json", doc); err != nil {
			return written, err
		}
		g.log.WithFields(logrus.Fields{"plan": def.Name, "id": id}).Debug("metadata generated")
	}

	doc, err := marshal(g.Collection())
	if err != nil {
		return written, err
	}
	if err := write(CollectionFile, doc); err != nil {
		return written, err
	}
	return written, nil
}

// Token builds the metadata document for plan id.
func (g *Generator) Token(id int, def protocol.PlanDef) Token {
	tenorSeconds := uint64(def.TenorDays * g.proto.SecondsPerDay)
	return Token{
		Name:        fmt.Sprintf("%s #%d", g.opts.Name, id),
		Description: fmt.Sprintf("%s Plan: %s.", g.opts.Description, def.Name),
		Image:       g.opts.ImageBaseURI + strconv.Itoa(id) + ".svg",
		ExternalURL: g.opts.ExternalURL,
		Attributes: []Attribute{
			{TraitType: "Plan", Value: def.Name},
			{TraitType: "Tenor", Value: plan.FormatDuration(tenorSeconds)},
			{TraitType: "Tenor (days)", Value: def.TenorDays, DisplayType: "number"},
			{TraitType: "APR (%)", Value: plan.FormatAPR(uint64(def.AprBps))},
			{TraitType: "Grace Period (days)", Value: g.proto.GracePeriodSeconds / g.proto.SecondsPerDay, DisplayType: "number"},
			{TraitType: "Status", Value: deposit.Active.String()},
		},
	}
}

// Collection builds the collection document.
func (g *Generator) Collection() Collection {
	return Collection{
		Name:         g.opts.Name,
		Description:  g.opts.Description,
		Image:        g.opts.ImageBaseURI + "1.svg",
		ExternalLink: g.opts.ExternalURL,
	}
}

var svgTemplate = template.Must(template.New("certificate").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="400" height="250" viewBox="0 0 400 250">
  <rect width="400" height="250" rx="16" fill="{{.Color}}"/>
  <text x="24" y="48" font-family="monospace" font-size="18" fill="#ffffff">{{xml .Title}}</text>
  <text x="24" y="110" font-family="monospace" font-size="28" fill="#ffffff">{{xml .Plan}}</text>
  <text x="24" y="160" font-family="monospace" font-size="16" fill="#ffffff">Tenor {{.Tenor}}</text>
  <text x="24" y="190" font-family="monospace" font-size="16" fill="#ffffff">APR {{.APR}}%</text>
</svg>
`))

// palette cycles across plans.
var palette = []string{"#2563eb", "#059669", "#7c3aed", "#d97706", "#dc2626"}

// Image renders the SVG card for plan id.
func (g *Generator) Image(id int, def protocol.PlanDef) ([]byte, error) {
	var buf bytes.Buffer
	err := svgTemplate.Execute(&buf, map[string]string{
		"Color": palette[(id-1+len(palette))%len(palette)],
		"Title": g.opts.Name,
		"Plan":  def.Name,
		"Tenor": plan.FormatDuration(uint64(def.TenorDays * g.proto.SecondsPerDay)),
		"APR":   plan.FormatAPR(uint64(def.AprBps)),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
