package tisym

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/syntax"
)

// ErrInvalidDialect is returned by RegisterDialect for an unusable SitterDialect.
var ErrInvalidDialect = errors.New("tisym: invalid dialect")

// SitterSite classifies one tree-sitter node type that carries a name.
type SitterSite struct {
	// Definition is true when the node introduces the name.
	Definition bool
	// Kind is a symbol kind such as "label" or "nvar_write".
	Kind string `validate:"oneof=label nvar_write nvar_read nvar_func svar_write svar_read svar_func line_number subprogram"`
	// Ident is the node type of the child leaf holding the name.
	Ident string `validate:"required"`
}

// SitterDialect describes a dialect backed by a tree-sitter grammar. Sites
// and Fragments are keyed by node type; every site needs a fragment, a
// small program with %s where the name goes, so renames can be checked.
type SitterDialect struct {
	Name       string                `validate:"required"`
	Extensions []string              `validate:"dive,startswith=."`
	Language   *sitter.Language      `validate:"required"`
	Sites      map[string]SitterSite `validate:"required,min=1,dive"`
	Fragments  map[string]string     `validate:"required,dive,contains=%s"`
}

var dialectValidate = validator.New(validator.WithRequiredStructEnabled())

// RegisterDialect makes a tree-sitter dialect available to Open, Load and
// the Engine under d.Name. The built-in dialects and their extensions
// cannot be taken over; registering another name twice replaces the earlier
// one.
func RegisterDialect(d SitterDialect) error {
	rules, err := d.rules()
	if err != nil {
		return err
	}
	dialect.Register(rules)
	return nil
}

func (s SitterDialect) rules() (*dialect.Rules, error) {
	if err := dialectValidate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("%w: %s fails %q", ErrInvalidDialect, fe.Namespace(), fe.Tag())
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDialect, err)
	}
	switch s.Name {
	case "xas99", "xga99", "xbas99":
		return nil, fmt.Errorf("%w: %s is built in", ErrInvalidDialect, s.Name)
	}
	for _, ext := range s.Extensions {
		if owner, ok := dialect.ForPath("file" + ext); ok && owner.Name != s.Name {
			return nil, fmt.Errorf("%w: extension %s belongs to %s", ErrInvalidDialect, ext, owner.Name)
		}
	}

	r := &dialect.Rules{
		Name:      s.Name,
		Grammar:   dialect.SitterGrammar(s.Language),
		Sites:     make(map[syntax.Kind]dialect.Site, len(s.Sites)),
		Fragments: make(map[syntax.Kind]string, len(s.Fragments)),
	}
	for _, ext := range s.Extensions {
		r.Extensions = append(r.Extensions, strings.ToLower(ext))
	}
	for kind, site := range s.Sites {
		frag, ok := s.Fragments[kind]
		if !ok {
			return nil, fmt.Errorf("%w: site %s has no fragment", ErrInvalidDialect, kind)
		}
		role := dialect.RoleReference
		if site.Definition {
			role = dialect.RoleDefinition
		}
		r.Sites[syntax.Kind(kind)] = dialect.Site{
			Role:  role,
			Kind:  dialect.SymbolKind(site.Kind),
			Ident: syntax.Kind(site.Ident),
		}
		r.Fragments[syntax.Kind(kind)] = frag
	}
	return r, nil
}
