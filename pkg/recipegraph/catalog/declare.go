package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/randalmurphal/recipegraph/pkg/recipegraph"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

var declValidate = validator.New()

// Declarations is the YAML form of a catalog.
type Declarations struct {
	Types     []string      `yaml:"types" validate:"dive,required"`
	Factories []FactoryDecl `yaml:"factories" validate:"dive"`
}

// FactoryDecl declares one factory's signature.
type FactoryDecl struct {
	Name    string      `yaml:"name" validate:"required"`
	Product string      `yaml:"product" validate:"required"`
	Params  []ParamDecl `yaml:"params" validate:"dive"`
}

// ParamDecl declares one factory parameter. Default is optional and must be
// convertible to Type.
type ParamDecl struct {
	Name    string `yaml:"name" validate:"required"`
	Type    string `yaml:"type" validate:"required"`
	Tooltip string `yaml:"tooltip"`
	Default any    `yaml:"default"`
}

// LoadDeclarations reads a declarations file into the catalog.
func (c *Catalog) LoadDeclarations(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read declarations: %w", err)
	}
	return c.Declare(data)
}

// Declare parses YAML declarations, defines their types and registers their
// factories as unbound Funcs. Factories already present with an
// implementation are replaced only by signature; their implementation is kept.
func (c *Catalog) Declare(data []byte) error {
	var decls Declarations
	if err := yaml.Unmarshal(data, &decls); err != nil {
		return fmt.Errorf("parse declarations: %w", err)
	}
	if err := declValidate.Struct(&decls); err != nil {
		return fmt.Errorf("invalid declarations: %w", err)
	}

	for _, name := range decls.Types {
		c.DefineType(name, nil)
	}

	funcs := make([]*Func, 0, len(decls.Factories))
	for _, fd := range decls.Factories {
		f, err := c.declaredFunc(fd)
		if err != nil {
			return fmt.Errorf("factory %q: %w", fd.Name, err)
		}
		funcs = append(funcs, f)
	}

	for _, f := range funcs {
		if existing, ok := c.Factory(f.name); ok {
			if bound, ok := existing.(*Func); ok && bound.Bound() {
				f = f.withImpl(bound.fn)
			}
		}
		c.Register(f)
	}
	return nil
}

func (c *Catalog) declaredFunc(fd FactoryDecl) (*Func, error) {
	product, err := c.ParseType(fd.Product)
	if err != nil {
		return nil, fmt.Errorf("product: %w", err)
	}

	params := make([]recipegraph.Parameter, 0, len(fd.Params))
	for _, pd := range fd.Params {
		typ, err := c.ParseType(pd.Type)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", pd.Name, err)
		}
		def := cty.NilVal
		if pd.Default != nil {
			def, err = defaultValue(pd.Default, typ)
			if err != nil {
				return nil, fmt.Errorf("param %q default: %w", pd.Name, err)
			}
		}
		params = append(params, recipegraph.Parameter{
			Name:    pd.Name,
			Type:    typ,
			Tooltip: pd.Tooltip,
			Default: def,
		})
	}
	return NewFunc(fd.Name, product, params, nil), nil
}

// defaultValue converts a decoded YAML scalar or collection to typ by way of
// its JSON form.
func defaultValue(raw any, typ cty.Type) (cty.Value, error) {
	if typ.IsCapsuleType() {
		return cty.NilVal, fmt.Errorf("capsule type %s cannot have a literal default", typ.FriendlyName())
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return cty.NilVal, err
	}
	if typ.Equals(cty.DynamicPseudoType) {
		if typ, err = ctyjson.ImpliedType(data); err != nil {
			return cty.NilVal, err
		}
	}
	return ctyjson.Unmarshal(data, typ)
}
