package ir

// Evidence describes where a declaration originated in source code.
type Evidence struct {
	Filepath  string `json:"filepath"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// TranslationUnit is the parser-level view of one C++ file. It holds plain
// values only, so units can be produced concurrently and registered later.
type TranslationUnit struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Language    string    `json:"language"`
	IsSource    bool      `json:"is_source"` // .cpp/.cc/.cxx as opposed to a header
	ContentHash string    `json:"content_hash"`
	Global      Namespace `json:"global"`
}

// Namespace is a namespace body. Name is empty for the global and anonymous
// namespaces and may be qualified ("a::b") for nested namespace definitions.
type Namespace struct {
	Name       string      `json:"name"`
	Namespaces []Namespace `json:"namespaces,omitempty"`
	Classes    []Class     `json:"classes,omitempty"`
	Functions  []Function  `json:"functions,omitempty"`
	Aliases    []Alias     `json:"aliases,omitempty"`
	Using      []Using     `json:"using,omitempty"`
	Evidence   Evidence    `json:"evidence"`
}

// Class is a class or struct definition. Forward declarations are not emitted.
type Class struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Decl           string     `json:"decl"`
	IsClass        bool       `json:"is_class"`
	Access         string     `json:"access"`
	Template       bool       `json:"template,omitempty"`
	Specialization bool       `json:"specialization,omitempty"`
	Bases          []Base     `json:"bases,omitempty"`
	Functions      []Function `json:"functions,omitempty"`
	Fields         []Field    `json:"fields,omitempty"`
	Aliases        []Alias    `json:"aliases,omitempty"`
	Classes        []Class    `json:"classes,omitempty"`
	Evidence       Evidence   `json:"evidence"`
}

// Base is one base-specifier as written.
type Base struct {
	Name    string `json:"name"`
	Access  string `json:"access"`
	Virtual bool   `json:"virtual,omitempty"`
}

// Function roles.
const (
	RoleMethod      = "method"
	RoleConstructor = "constructor"
	RoleDestructor  = "destructor"
)

// Function is a member or free function declaration or definition.
type Function struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Params    []string `json:"params,omitempty"`
	Return    string   `json:"return,omitempty"`
	Role      string   `json:"role"`
	Access    string   `json:"access"`
	Virtual   bool     `json:"virtual,omitempty"`
	Pure      bool     `json:"pure,omitempty"`
	Static    bool     `json:"static,omitempty"`
	Const     bool     `json:"const,omitempty"`
	Inline    bool     `json:"inline,omitempty"`
	Deleted   bool     `json:"deleted,omitempty"`
	Defaulted bool     `json:"defaulted,omitempty"`
	Override  bool     `json:"override,omitempty"`
	Final     bool     `json:"final,omitempty"`
	Template  bool     `json:"template,omitempty"`
	Decl      string   `json:"decl"`
	Evidence  Evidence `json:"evidence"`
}

// Field is a data member.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Access   string   `json:"access"`
	Static   bool     `json:"static,omitempty"`
	Evidence Evidence `json:"evidence"`
}

// Alias is a typedef or alias-declaration.
type Alias struct {
	Name     string   `json:"name"`
	Target   string   `json:"target"`
	Access   string   `json:"access"`
	Evidence Evidence `json:"evidence"`
}

// Using is a using-directive (Namespace true) or using-declaration.
type Using struct {
	Target    string `json:"target"`
	Namespace bool   `json:"namespace,omitempty"`
}
