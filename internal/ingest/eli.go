package ingest

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// Metadata keys written by the normalisers
const (
	MetaLanguage     = domain.FieldLanguage
	MetaPath         = domain.FieldPath
	MetaFileName     = "fileName"
	MetaDateDocument = "dateDocument"
)

// eliDocument is the subset of an ELI JSON:API export that is indexed
type eliDocument struct {
	Data struct {
		Attributes eliAttributes `json:"attributes"`
	} `json:"data"`
	Included []struct {
		Attributes eliAttributes `json:"attributes"`
		References struct {
			Language string `json:"language"`
		} `json:"references"`
	} `json:"included"`
}

type eliAttributes struct {
	Title        eliString `json:"title"`
	Text         string    `json:"text"`
	DateDocument string    `json:"date_document"`
}

// eliString accepts both a bare string and the typed {"xsd:string": "..."} form
type eliString string

func (s *eliString) UnmarshalJSON(b []byte) error {
	var plain string
	if err := json.Unmarshal(b, &plain); err == nil {
		*s = eliString(plain)
		return nil
	}
	var typed map[string]any
	if err := json.Unmarshal(b, &typed); err != nil {
		return err
	}
	if v, ok := typed["xsd:string"].(string); ok {
		*s = eliString(v)
	}
	return nil
}

// ELINormaliser reads European Legislation Identifier JSON exports
type ELINormaliser struct{}

// Verify interface compliance
var _ Normaliser = ELINormaliser{}

func (ELINormaliser) SupportedTypes() []string {
	return []string{"application/json", "application/ld+json"}
}

func (ELINormaliser) Priority() int { return 10 }

// Normalise takes the title and language from the first expression and the
// text from the work, falling back to the expressions' texts.
func (ELINormaliser) Normalise(src Source) (*domain.Document, error) {
	var eli eliDocument
	if err := json.Unmarshal(src.Data, &eli); err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Path, err)
	}

	fileName := path.Base(src.Path)
	title := string(eli.Data.Attributes.Title)
	var language string
	if len(eli.Included) > 0 {
		first := eli.Included[0]
		if t := string(first.Attributes.Title); t != "" {
			title = t
		}
		if ref := first.References.Language; ref != "" {
			language = path.Base(ref)
		}
	}
	if strings.TrimSpace(title) == "" {
		title = fileName
	}

	content := eli.Data.Attributes.Text
	if strings.TrimSpace(content) == "" {
		parts := make([]string, 0, len(eli.Included))
		for _, inc := range eli.Included {
			if t := strings.TrimSpace(inc.Attributes.Text); t != "" {
				parts = append(parts, t)
			}
		}
		content = strings.Join(parts, "\n\n")
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.NewValidationError("content", src.Path+" has no text")
	}

	metadata := map[string]any{
		MetaPath:     "/" + strings.TrimPrefix(src.Path, "/"),
		MetaFileName: fileName,
	}
	if language != "" {
		metadata[MetaLanguage] = language
	}
	if d := eli.Data.Attributes.DateDocument; d != "" {
		metadata[MetaDateDocument] = d
	}

	return &domain.Document{
		Title:    strings.TrimSpace(title),
		Content:  content,
		Metadata: metadata,
		Status:   domain.DocumentStatusPending,
	}, nil
}

// TextNormaliser reads plain text files; the first non-empty line is the title
type TextNormaliser struct{}

// Verify interface compliance
var _ Normaliser = TextNormaliser{}

func (TextNormaliser) SupportedTypes() []string { return []string{"text/*"} }

func (TextNormaliser) Priority() int { return 0 }

func (TextNormaliser) Normalise(src Source) (*domain.Document, error) {
	text := strings.TrimSpace(strings.ReplaceAll(string(src.Data), "\r\n", "\n"))
	title, body, _ := strings.Cut(text, "\n")
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if body == "" {
		body = title
	}
	if title == "" {
		return nil, domain.NewValidationError("content", src.Path+" is empty")
	}

	return &domain.Document{
		Title:   title,
		Content: body,
		Metadata: map[string]any{
			MetaPath:     "/" + strings.TrimPrefix(src.Path, "/"),
			MetaFileName: path.Base(src.Path),
		},
		Status: domain.DocumentStatusPending,
	}, nil
}
