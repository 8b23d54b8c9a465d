package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// LanguageConfig describes how to recognize structural node types for one
// tree-sitter grammar. The registry is parametric in grammar so additional
// languages can be registered; only Rust is registered by default.
type LanguageConfig struct {
	Name           string
	Extensions     []string
	FunctionTypes  map[string]bool
	StructTypes    map[string]bool
	EnumTypes      map[string]bool
	TraitTypes     map[string]bool
	ImplTypes      map[string]bool
	ModuleTypes    map[string]bool
	ConstTypes     map[string]bool
	StaticTypes    map[string]bool
	TypeAliasTypes map[string]bool
	NameField      string
}

// Registry maps file extensions to LanguageConfig and tree-sitter grammars.
type Registry struct {
	configs     map[string]LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewRegistry builds a Registry with the Rust grammar registered.
func NewRegistry() *Registry {
	r := &Registry{
		configs:     map[string]LanguageConfig{},
		extToLang:   map[string]string{},
		tsLanguages: map[string]*sitter.Language{},
	}
	r.registerRust()
	return r
}

func (r *Registry) register(cfg LanguageConfig, tsLang *sitter.Language) {
	r.configs[cfg.Name] = cfg
	r.tsLanguages[cfg.Name] = tsLang
	for _, ext := range cfg.Extensions {
		r.extToLang[ext] = cfg.Name
	}
}

func (r *Registry) registerRust() {
	cfg := LanguageConfig{
		Name:       "rust",
		Extensions: []string{".rs"},
		FunctionTypes: map[string]bool{
			"function_item": true,
		},
		StructTypes: map[string]bool{
			"struct_item": true,
		},
		EnumTypes: map[string]bool{
			"enum_item": true,
		},
		TraitTypes: map[string]bool{
			"trait_item": true,
		},
		ImplTypes: map[string]bool{
			"impl_item": true,
		},
		ModuleTypes: map[string]bool{
			"mod_item": true,
		},
		ConstTypes: map[string]bool{
			"const_item": true,
		},
		StaticTypes: map[string]bool{
			"static_item": true,
		},
		TypeAliasTypes: map[string]bool{
			"type_item": true,
		},
		NameField: "name",
	}
	r.register(cfg, rust.GetLanguage())
}

// ByExtension returns the config and tree-sitter language for a file
// extension (including the leading dot), and whether it was found.
func (r *Registry) ByExtension(ext string) (LanguageConfig, *sitter.Language, bool) {
	name, ok := r.extToLang[ext]
	if !ok {
		return LanguageConfig{}, nil, false
	}
	return r.configs[name], r.tsLanguages[name], true
}

// SupportedExtensions lists every extension the registry recognizes.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	return exts
}

// DefaultRegistry is the process-wide singleton used by package consumers
// that don't need a custom grammar set.
var DefaultRegistry = NewRegistry()
