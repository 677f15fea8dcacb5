package ast

// Logic tag types, named as the Twig.js runtime expects them.
const (
	LogicIf         = "Twig.logic.type.if"
	LogicElseif     = "Twig.logic.type.elseif"
	LogicElse       = "Twig.logic.type.else"
	LogicFor        = "Twig.logic.type.for"
	LogicSet        = "Twig.logic.type.set"
	LogicSetCapture = "Twig.logic.type.setcapture"
	LogicBlock      = "Twig.logic.type.block"
	LogicExtends    = "Twig.logic.type.extends"
	LogicInclude    = "Twig.logic.type.include"
	LogicFilter     = "Twig.logic.type.filter"
	LogicApply      = "Twig.logic.type.apply"
	LogicSpaceless  = "Twig.logic.type.spaceless"
	LogicVerbatim   = "Twig.logic.type.verbatim"
	LogicWith       = "Twig.logic.type.with"
	LogicMacro      = "Twig.logic.type.macro"
	LogicImport     = "Twig.logic.type.import"
	LogicFrom       = "Twig.logic.type.from"
	LogicDo         = "Twig.logic.type.do"
)

// Logic is the payload of a logic token.
type Logic interface {
	LogicType() string
}

// Body is a tag with an optional expression and a nested token list:
// if, elseif, else, filter, apply, spaceless and verbatim.
type Body struct {
	Type   string  `json:"type"`
	Stack  []Expr  `json:"stack,omitempty"`
	Output []Token `json:"output"`
}

func (l *Body) LogicType() string { return l.Type }

// For loops over the result of Expression.
type For struct {
	Type        string  `json:"type"`
	KeyVar      string  `json:"key_var,omitempty"`
	ValueVar    string  `json:"value_var"`
	Expression  []Expr  `json:"expression"`
	Conditional []Expr  `json:"conditional,omitempty"`
	Output      []Token `json:"output"`
}

func (l *For) LogicType() string { return l.Type }

// Set assigns an expression to a context variable.
type Set struct {
	Type       string `json:"type"`
	Key        string `json:"key"`
	Expression []Expr `json:"expression"`
}

func (l *Set) LogicType() string { return l.Type }

// SetCapture assigns rendered output to a context variable.
type SetCapture struct {
	Type   string  `json:"type"`
	Key    string  `json:"key"`
	Output []Token `json:"output"`
}

func (l *SetCapture) LogicType() string { return l.Type }

// Block defines an overridable block.
type Block struct {
	Type   string  `json:"type"`
	Block  string  `json:"block"`
	Output []Token `json:"output"`
}

func (l *Block) LogicType() string { return l.Type }

// Stack is a tag that only evaluates an expression: extends and do.
type Stack struct {
	Type  string `json:"type"`
	Stack []Expr `json:"stack"`
}

func (l *Stack) LogicType() string { return l.Type }

// Include renders another template in place.
type Include struct {
	Type          string `json:"type"`
	Stack         []Expr `json:"stack"`
	WithStack     []Expr `json:"withStack,omitempty"`
	IgnoreMissing bool   `json:"ignoreMissing"`
	Only          bool   `json:"only"`
}

func (l *Include) LogicType() string { return l.Type }

// With renders its body in a modified scope.
type With struct {
	Type   string  `json:"type"`
	Stack  []Expr  `json:"withStack,omitempty"`
	Only   bool    `json:"only"`
	Output []Token `json:"output"`
}

func (l *With) LogicType() string { return l.Type }

// Macro defines a reusable template function.
type Macro struct {
	Type       string            `json:"type"`
	MacroName  string            `json:"macroName"`
	Parameters []string          `json:"parameters"`
	Defaults   map[string][]Expr `json:"defaults,omitempty"`
	Output     []Token           `json:"output"`
}

func (l *Macro) LogicType() string { return l.Type }

// Import binds the macros of another template to a name.
type Import struct {
	Type        string `json:"type"`
	Expression  []Expr `json:"expression"`
	ContextName string `json:"contextName"`
}

func (l *Import) LogicType() string { return l.Type }

// From binds individual macros of another template, keyed by macro name.
type From struct {
	Type       string            `json:"type"`
	Expression []Expr            `json:"expression"`
	MacroNames map[string]string `json:"macroNames"`
}

func (l *From) LogicType() string { return l.Type }
