package types

// EntryKind distinguishes the Entry variants of §3.
type EntryKind uint8

const (
	EntryClass EntryKind = iota
	EntryModule
	EntryMethod
	EntryConstant
	EntryLocalVariable
)

func (k EntryKind) String() string {
	switch k {
	case EntryClass:
		return "class"
	case EntryModule:
		return "module"
	case EntryMethod:
		return "method"
	case EntryConstant:
		return "constant"
	case EntryLocalVariable:
		return "local_variable"
	default:
		return "unknown"
	}
}

// MethodKind distinguishes instance methods from singleton (class) methods.
type MethodKind uint8

const (
	MethodInstance MethodKind = iota
	MethodSingleton
)

// Visibility is a Ruby method's visibility.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
)

// MixinMode distinguishes include/prepend/extend (§3 MixinSet).
type MixinMode uint8

const (
	MixinInclude MixinMode = iota
	MixinPrepend
	MixinExtend
)

func (m MixinMode) String() string {
	switch m {
	case MixinInclude:
		return "include"
	case MixinPrepend:
		return "prepend"
	case MixinExtend:
		return "extend"
	default:
		return "unknown"
	}
}

// Mixin is one include/prepend/extend call. Order within a MixinSet is the
// textual declaration order; Ruby's lookup chain depends on it (§3).
type Mixin struct {
	Target FQN
	Mode   MixinMode
}

// MixinSet is the ordered list of mixins declared in one namespace body.
type MixinSet []Mixin

// Param describes one method parameter, enough to render a signature for
// completion/hover without re-parsing.
type Param struct {
	Name     string
	Kind     ParamKind
	Default  string // source text of the default value expression, if any
}

type ParamKind uint8

const (
	ParamRequired ParamKind = iota
	ParamOptional
	ParamRest       // *args
	ParamKeyword    // name:
	ParamKeywordOpt // name: default
	ParamKeyrest    // **kwargs
	ParamBlock      // &blk
)

// Entry is a single definition (§3). Exactly one of the *Data fields is
// populated, selected by Kind; this mirrors a tagged union without the
// overhead of an interface per entry (the entry store holds hundreds of
// thousands of these in long-running sessions).
type Entry struct {
	ID       EntryID
	Kind     EntryKind
	FQN      FQN // the defined name's FQN: the class/module/constant's own
	// FQN, or (for methods) owner+method-name is reconstructed from Owner+Name
	Location  Location
	ContentHash uint64

	// EntryClass
	Superclass FQN
	HasSuper   bool
	ClassMixins MixinSet

	// EntryModule
	ModuleMixins MixinSet

	// EntryMethod
	MethodName NameHandle
	Owner      FQN
	MethodKind MethodKind
	Visibility Visibility
	Params     []Param

	// EntryConstant
	ValueRepr   string
	HasValue    bool

	// EntryLocalVariable
	ScopeID ScopeID
}

// Mixins returns the entry's mixin set regardless of whether it is a class
// or module, or nil for any other kind.
func (e *Entry) Mixins() MixinSet {
	switch e.Kind {
	case EntryClass:
		return e.ClassMixins
	case EntryModule:
		return e.ModuleMixins
	default:
		return nil
	}
}

// ReferenceKind distinguishes use-site kinds (§3 Reference).
type ReferenceKind uint8

const (
	RefConstantRead ReferenceKind = iota
	RefConstantWrite
	RefMethodCall
	RefLocalRead
	RefLocalWrite
	RefMixinUse
)

// UnresolvedEntryID marks a Reference whose target could not be found.
const UnresolvedEntryID EntryID = 0

// Reference is a single use site (§3). Target is UnresolvedEntryID when the
// symbol could not be resolved; Unresolved references power the
// unresolved-constant diagnostics of §7/§8.
type Reference struct {
	Target   EntryID
	Location Location
	Kind     ReferenceKind
	// Name is the raw identifier text at the use site, retained so an
	// Unresolved reference can still be rendered in a diagnostic without a
	// second pass over the source.
	Name string
}

// Unresolved reports whether r failed to resolve.
func (r Reference) Unresolved() bool { return r.Target == UnresolvedEntryID }
