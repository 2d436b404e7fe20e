package parser

import "strings"

type NodeKind int

const (
	KindError NodeKind = iota
	KindMissing

	// Leaves
	KindToken
	KindIdentifier
	KindLiteral
	KindPredefinedType
	KindThisExpr
	KindBaseExpr
	KindDiscard

	// Compilation unit level
	KindCompilationUnit
	KindExternAlias
	KindUsingDirective
	KindNamespaceDecl
	KindFileScopedNamespaceDecl
	KindGlobalStatement

	// Attributes
	KindAttributeList
	KindAttributeTarget
	KindAttribute
	KindAttributeArgumentList
	KindAttributeArgument
	KindNameEquals
	KindNameColon

	// Type declarations
	KindClassDecl
	KindStructDecl
	KindInterfaceDecl
	KindEnumDecl
	KindEnumMember
	KindRecordDecl
	KindDelegateDecl
	KindDeclarationList
	KindBaseList
	KindPrimaryConstructorBase
	KindTypeParameterList
	KindTypeParameter
	KindConstraintClause
	KindConstraint
	KindModifiers

	// Members
	KindFieldDecl
	KindEventFieldDecl
	KindEventDecl
	KindMethodDecl
	KindPropertyDecl
	KindIndexerDecl
	KindConstructorDecl
	KindConstructorInitializer
	KindDestructorDecl
	KindOperatorDecl
	KindConversionOperatorDecl
	KindAccessorList
	KindAccessorDecl
	KindExplicitInterfaceSpecifier
	KindParameterList
	KindBracketedParameterList
	KindParameter
	KindArrowExpressionClause
	KindEqualsValueClause
	KindVariableDeclaration
	KindVariableDeclarator

	// Types
	KindQualifiedName
	KindAliasQualifiedName
	KindGenericName
	KindTypeArgumentList
	KindOmittedTypeArgument
	KindArrayType
	KindArrayRankSpecifier
	KindOmittedArraySize
	KindNullableType
	KindPointerType
	KindTupleType
	KindTupleElement
	KindRefType
	KindFunctionPointerType
	KindFunctionPointerCallingConvention
	KindFunctionPointerParameter

	// Statements
	KindBlock
	KindEmptyStmt
	KindExprStmt
	KindLocalDeclStmt
	KindLocalFunctionStmt
	KindIfStmt
	KindElseIfClause
	KindElseClause
	KindWhileStmt
	KindDoStmt
	KindForStmt
	KindForeachStmt
	KindSwitchStmt
	KindSwitchSection
	KindCaseSwitchLabel
	KindCasePatternSwitchLabel
	KindDefaultSwitchLabel
	KindWhenClause
	KindReturnStmt
	KindBreakStmt
	KindContinueStmt
	KindGotoStmt
	KindThrowStmt
	KindTryStmt
	KindCatchClause
	KindCatchDeclaration
	KindCatchFilterClause
	KindFinallyClause
	KindUsingStmt
	KindLockStmt
	KindFixedStmt
	KindCheckedStmt
	KindUnsafeStmt
	KindYieldStmt
	KindLabeledStmt

	// Expressions
	KindParenExpr
	KindTupleExpr
	KindArgument
	KindArgumentList
	KindBracketedArgumentList
	KindBinaryExpr
	KindAssignExpr
	KindConditionalExpr
	KindPrefixUnaryExpr
	KindPostfixUnaryExpr
	KindCastExpr
	KindAwaitExpr
	KindIsExpr
	KindIsPatternExpr
	KindAsExpr
	KindRangeExpr
	KindSwitchExpr
	KindSwitchExprArm
	KindWithExpr
	KindMemberAccessExpr
	KindPointerMemberAccessExpr
	KindConditionalAccessExpr
	KindMemberBindingExpr
	KindElementBindingExpr
	KindInvocationExpr
	KindElementAccessExpr
	KindObjectCreationExpr
	KindImplicitObjectCreationExpr
	KindArrayCreationExpr
	KindImplicitArrayCreationExpr
	KindAnonymousObjectCreationExpr
	KindAnonymousObjectMember
	KindStackAllocExpr
	KindInitializerExpr
	KindLambdaExpr
	KindAnonymousMethodExpr
	KindDefaultExpr
	KindTypeofExpr
	KindSizeofExpr
	KindCheckedExpr
	KindRefExpr
	KindThrowExpr
	KindDeclarationExpr
	KindMakeRefExpr
	KindRefTypeExpr
	KindRefValueExpr
	KindInterpolatedString
	KindInterpolation
	KindInterpolationAlignment
	KindInterpolationFormat
	KindQueryExpr
	KindFromClause
	KindQueryBody
	KindJoinClause
	KindJoinIntoClause
	KindLetClause
	KindWhereClause
	KindOrderByClause
	KindOrdering
	KindSelectClause
	KindGroupClause
	KindQueryContinuation

	// Patterns and designations
	KindConstantPattern
	KindDeclarationPattern
	KindDiscardPattern
	KindVarPattern
	KindRecursivePattern
	KindPositionalPatternClause
	KindPropertyPatternClause
	KindSubpattern
	KindTypePattern
	KindNegatedPattern
	KindParenthesizedPattern
	KindRelationalPattern
	KindBinaryPattern
	KindParenthesizedVariableDesignation

	// Directives
	KindIfDirective
	KindElifDirective
	KindElseDirective
	KindEndifDirective
	KindDefineDirective
	KindUndefDirective
	KindRegionDirective
	KindEndregionDirective
	KindPragmaDirective
	KindLineDirective
	KindNullableDirective
	KindErrorDirective
	KindWarningDirective
	KindBadDirective
)

var nodeKindNames = map[NodeKind]string{
	KindError:                            "Error",
	KindMissing:                          "Missing",
	KindToken:                            "Token",
	KindIdentifier:                       "Identifier",
	KindLiteral:                          "Literal",
	KindPredefinedType:                   "PredefinedType",
	KindThisExpr:                         "ThisExpr",
	KindBaseExpr:                         "BaseExpr",
	KindDiscard:                          "Discard",
	KindCompilationUnit:                  "CompilationUnit",
	KindExternAlias:                      "ExternAlias",
	KindUsingDirective:                   "UsingDirective",
	KindNamespaceDecl:                    "NamespaceDecl",
	KindFileScopedNamespaceDecl:          "FileScopedNamespaceDecl",
	KindGlobalStatement:                  "GlobalStatement",
	KindAttributeList:                    "AttributeList",
	KindAttributeTarget:                  "AttributeTarget",
	KindAttribute:                        "Attribute",
	KindAttributeArgumentList:            "AttributeArgumentList",
	KindAttributeArgument:                "AttributeArgument",
	KindNameEquals:                       "NameEquals",
	KindNameColon:                        "NameColon",
	KindClassDecl:                        "ClassDecl",
	KindStructDecl:                       "StructDecl",
	KindInterfaceDecl:                    "InterfaceDecl",
	KindEnumDecl:                         "EnumDecl",
	KindEnumMember:                       "EnumMember",
	KindRecordDecl:                       "RecordDecl",
	KindDelegateDecl:                     "DelegateDecl",
	KindDeclarationList:                  "DeclarationList",
	KindBaseList:                         "BaseList",
	KindPrimaryConstructorBase:           "PrimaryConstructorBase",
	KindTypeParameterList:                "TypeParameterList",
	KindTypeParameter:                    "TypeParameter",
	KindConstraintClause:                 "ConstraintClause",
	KindConstraint:                       "Constraint",
	KindModifiers:                        "Modifiers",
	KindFieldDecl:                        "FieldDecl",
	KindEventFieldDecl:                   "EventFieldDecl",
	KindEventDecl:                        "EventDecl",
	KindMethodDecl:                       "MethodDecl",
	KindPropertyDecl:                     "PropertyDecl",
	KindIndexerDecl:                      "IndexerDecl",
	KindConstructorDecl:                  "ConstructorDecl",
	KindConstructorInitializer:           "ConstructorInitializer",
	KindDestructorDecl:                   "DestructorDecl",
	KindOperatorDecl:                     "OperatorDecl",
	KindConversionOperatorDecl:           "ConversionOperatorDecl",
	KindAccessorList:                     "AccessorList",
	KindAccessorDecl:                     "AccessorDecl",
	KindExplicitInterfaceSpecifier:       "ExplicitInterfaceSpecifier",
	KindParameterList:                    "ParameterList",
	KindBracketedParameterList:           "BracketedParameterList",
	KindParameter:                        "Parameter",
	KindArrowExpressionClause:            "ArrowExpressionClause",
	KindEqualsValueClause:                "EqualsValueClause",
	KindVariableDeclaration:              "VariableDeclaration",
	KindVariableDeclarator:               "VariableDeclarator",
	KindQualifiedName:                    "QualifiedName",
	KindAliasQualifiedName:               "AliasQualifiedName",
	KindGenericName:                      "GenericName",
	KindTypeArgumentList:                 "TypeArgumentList",
	KindOmittedTypeArgument:              "OmittedTypeArgument",
	KindArrayType:                        "ArrayType",
	KindArrayRankSpecifier:               "ArrayRankSpecifier",
	KindOmittedArraySize:                 "OmittedArraySize",
	KindNullableType:                     "NullableType",
	KindPointerType:                      "PointerType",
	KindTupleType:                        "TupleType",
	KindTupleElement:                     "TupleElement",
	KindRefType:                          "RefType",
	KindFunctionPointerType:              "FunctionPointerType",
	KindFunctionPointerCallingConvention: "FunctionPointerCallingConvention",
	KindFunctionPointerParameter:         "FunctionPointerParameter",
	KindBlock:                            "Block",
	KindEmptyStmt:                        "EmptyStmt",
	KindExprStmt:                         "ExprStmt",
	KindLocalDeclStmt:                    "LocalDeclStmt",
	KindLocalFunctionStmt:                "LocalFunctionStmt",
	KindIfStmt:                           "IfStmt",
	KindElseIfClause:                     "ElseIfClause",
	KindElseClause:                       "ElseClause",
	KindWhileStmt:                        "WhileStmt",
	KindDoStmt:                           "DoStmt",
	KindForStmt:                          "ForStmt",
	KindForeachStmt:                      "ForeachStmt",
	KindSwitchStmt:                       "SwitchStmt",
	KindSwitchSection:                    "SwitchSection",
	KindCaseSwitchLabel:                  "CaseSwitchLabel",
	KindCasePatternSwitchLabel:           "CasePatternSwitchLabel",
	KindDefaultSwitchLabel:               "DefaultSwitchLabel",
	KindWhenClause:                       "WhenClause",
	KindReturnStmt:                       "ReturnStmt",
	KindBreakStmt:                        "BreakStmt",
	KindContinueStmt:                     "ContinueStmt",
	KindGotoStmt:                         "GotoStmt",
	KindThrowStmt:                        "ThrowStmt",
	KindTryStmt:                          "TryStmt",
	KindCatchClause:                      "CatchClause",
	KindCatchDeclaration:                 "CatchDeclaration",
	KindCatchFilterClause:                "CatchFilterClause",
	KindFinallyClause:                    "FinallyClause",
	KindUsingStmt:                        "UsingStmt",
	KindLockStmt:                         "LockStmt",
	KindFixedStmt:                        "FixedStmt",
	KindCheckedStmt:                      "CheckedStmt",
	KindUnsafeStmt:                       "UnsafeStmt",
	KindYieldStmt:                        "YieldStmt",
	KindLabeledStmt:                      "LabeledStmt",
	KindParenExpr:                        "ParenExpr",
	KindTupleExpr:                        "TupleExpr",
	KindArgument:                         "Argument",
	KindArgumentList:                     "ArgumentList",
	KindBracketedArgumentList:            "BracketedArgumentList",
	KindBinaryExpr:                       "BinaryExpr",
	KindAssignExpr:                       "AssignExpr",
	KindConditionalExpr:                  "ConditionalExpr",
	KindPrefixUnaryExpr:                  "PrefixUnaryExpr",
	KindPostfixUnaryExpr:                 "PostfixUnaryExpr",
	KindCastExpr:                         "CastExpr",
	KindAwaitExpr:                        "AwaitExpr",
	KindIsExpr:                           "IsExpr",
	KindIsPatternExpr:                    "IsPatternExpr",
	KindAsExpr:                           "AsExpr",
	KindRangeExpr:                        "RangeExpr",
	KindSwitchExpr:                       "SwitchExpr",
	KindSwitchExprArm:                    "SwitchExprArm",
	KindWithExpr:                         "WithExpr",
	KindMemberAccessExpr:                 "MemberAccessExpr",
	KindPointerMemberAccessExpr:          "PointerMemberAccessExpr",
	KindConditionalAccessExpr:            "ConditionalAccessExpr",
	KindMemberBindingExpr:                "MemberBindingExpr",
	KindElementBindingExpr:               "ElementBindingExpr",
	KindInvocationExpr:                   "InvocationExpr",
	KindElementAccessExpr:                "ElementAccessExpr",
	KindObjectCreationExpr:               "ObjectCreationExpr",
	KindImplicitObjectCreationExpr:       "ImplicitObjectCreationExpr",
	KindArrayCreationExpr:                "ArrayCreationExpr",
	KindImplicitArrayCreationExpr:        "ImplicitArrayCreationExpr",
	KindAnonymousObjectCreationExpr:      "AnonymousObjectCreationExpr",
	KindAnonymousObjectMember:            "AnonymousObjectMember",
	KindStackAllocExpr:                   "StackAllocExpr",
	KindInitializerExpr:                  "InitializerExpr",
	KindLambdaExpr:                       "LambdaExpr",
	KindAnonymousMethodExpr:              "AnonymousMethodExpr",
	KindDefaultExpr:                      "DefaultExpr",
	KindTypeofExpr:                       "TypeofExpr",
	KindSizeofExpr:                       "SizeofExpr",
	KindCheckedExpr:                      "CheckedExpr",
	KindRefExpr:                          "RefExpr",
	KindThrowExpr:                        "ThrowExpr",
	KindDeclarationExpr:                  "DeclarationExpr",
	KindMakeRefExpr:                      "MakeRefExpr",
	KindRefTypeExpr:                      "RefTypeExpr",
	KindRefValueExpr:                     "RefValueExpr",
	KindInterpolatedString:               "InterpolatedString",
	KindInterpolation:                    "Interpolation",
	KindInterpolationAlignment:           "InterpolationAlignment",
	KindInterpolationFormat:              "InterpolationFormat",
	KindQueryExpr:                        "QueryExpr",
	KindFromClause:                       "FromClause",
	KindQueryBody:                        "QueryBody",
	KindJoinClause:                       "JoinClause",
	KindJoinIntoClause:                   "JoinIntoClause",
	KindLetClause:                        "LetClause",
	KindWhereClause:                      "WhereClause",
	KindOrderByClause:                    "OrderByClause",
	KindOrdering:                         "Ordering",
	KindSelectClause:                     "SelectClause",
	KindGroupClause:                      "GroupClause",
	KindQueryContinuation:                "QueryContinuation",
	KindConstantPattern:                  "ConstantPattern",
	KindDeclarationPattern:               "DeclarationPattern",
	KindDiscardPattern:                   "DiscardPattern",
	KindVarPattern:                       "VarPattern",
	KindRecursivePattern:                 "RecursivePattern",
	KindPositionalPatternClause:          "PositionalPatternClause",
	KindPropertyPatternClause:            "PropertyPatternClause",
	KindSubpattern:                       "Subpattern",
	KindTypePattern:                      "TypePattern",
	KindNegatedPattern:                   "NegatedPattern",
	KindParenthesizedPattern:             "ParenthesizedPattern",
	KindRelationalPattern:                "RelationalPattern",
	KindBinaryPattern:                    "BinaryPattern",
	KindParenthesizedVariableDesignation: "ParenthesizedVariableDesignation",
	KindIfDirective:                      "IfDirective",
	KindElifDirective:                    "ElifDirective",
	KindElseDirective:                    "ElseDirective",
	KindEndifDirective:                   "EndifDirective",
	KindDefineDirective:                  "DefineDirective",
	KindUndefDirective:                   "UndefDirective",
	KindRegionDirective:                  "RegionDirective",
	KindEndregionDirective:               "EndregionDirective",
	KindPragmaDirective:                  "PragmaDirective",
	KindLineDirective:                    "LineDirective",
	KindNullableDirective:                "NullableDirective",
	KindErrorDirective:                   "ErrorDirective",
	KindWarningDirective:                 "WarningDirective",
	KindBadDirective:                     "BadDirective",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsDirective reports whether k is one of the preprocessor directive kinds.
func (k NodeKind) IsDirective() bool {
	return k >= KindIfDirective && k <= KindBadDirective
}

type Error struct {
	Message  string
	Expected []TokenKind
	Got      *Token
}

type Node struct {
	Kind     NodeKind
	Span     Span
	Children []*Node
	Token    *Token
	Error    *Error
	fields   map[string]int
}

func (n *Node) AddChild(child *Node) {
	if child != nil {
		n.Children = append(n.Children, child)
	}
}

// AddField appends child and records it under a role name, so consumers
// can ask for "condition" or "body" instead of counting children.
func (n *Node) AddField(name string, child *Node) {
	if child == nil {
		return
	}
	if n.fields == nil {
		n.fields = make(map[string]int)
	}
	n.fields[name] = len(n.Children)
	n.Children = append(n.Children, child)
}

// Field returns the child recorded under name, or nil.
func (n *Node) Field(name string) *Node {
	if i, ok := n.fields[name]; ok && i < len(n.Children) {
		return n.Children[i]
	}
	return nil
}

// FieldNames returns the role names of n in child order.
func (n *Node) FieldNames() []string {
	names := make([]string, len(n.Children))
	for name, i := range n.fields {
		if i < len(names) {
			names[i] = name
		}
	}
	out := names[:0]
	for _, name := range names {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// FieldOf returns the role name under which child i was added.
func (n *Node) FieldOf(i int) string {
	for name, idx := range n.fields {
		if idx == i {
			return name
		}
	}
	return ""
}

func (n *Node) IsError() bool {
	return n.Kind == KindError
}

func (n *Node) IsMissing() bool {
	return n.Kind == KindMissing
}

func (n *Node) IsLeaf() bool {
	return n.Token != nil
}

func (n *Node) FirstChildOfKind(kind NodeKind) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}
	return nil
}

func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Kind == kind {
			result = append(result, child)
		}
	}
	return result
}

func (n *Node) TokenLiteral() string {
	if n.Token != nil {
		return n.Token.Literal
	}
	return ""
}

// Walk visits n and its descendants in source order. Returning false from
// fn skips the children of the node just visited.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Find returns the nodes of the given kind under n, n included.
func (n *Node) Find(kind NodeKind) []*Node {
	var out []*Node
	n.Walk(func(m *Node) bool {
		if m.Kind == kind {
			out = append(out, m)
		}
		return true
	})
	return out
}

// Tokens returns the leaf tokens of n in source order.
func (n *Node) Tokens() []*Token {
	var out []*Token
	n.Walk(func(m *Node) bool {
		if m.Token != nil {
			out = append(out, m.Token)
		}
		return true
	})
	return out
}

// Text reproduces the source covered by n: every leaf token preceded by its
// leading trivia. For a compilation unit this is the whole input.
func (n *Node) Text() string {
	var sb strings.Builder
	n.Walk(func(m *Node) bool {
		if m.Token != nil {
			for _, tr := range m.Token.Leading {
				sb.WriteString(tr.Literal)
			}
			sb.WriteString(m.Token.Literal)
		}
		return true
	})
	return sb.String()
}

// Directives returns the preprocessor directive nodes found in the trivia
// under n, in source order.
func (n *Node) Directives() []*Node {
	var out []*Node
	n.Walk(func(m *Node) bool {
		if m.Token != nil {
			for _, tr := range m.Token.Leading {
				if tr.Directive != nil {
					out = append(out, tr.Directive)
				}
			}
		}
		return true
	})
	return out
}

func (n *Node) String() string {
	return n.stringIndent(0, false)
}

func (n *Node) StringWithPositions() string {
	return n.stringIndent(0, true)
}

func (n *Node) stringIndent(indent int, showPositions bool) string {
	var sb strings.Builder
	n.writeIndent(&sb, indent, showPositions, "")
	return sb.String()
}

func (n *Node) writeIndent(sb *strings.Builder, indent int, showPositions bool, field string) {
	sb.WriteString(strings.Repeat("  ", indent))
	if field != "" {
		sb.WriteString(field)
		sb.WriteString(": ")
	}
	sb.WriteString(n.Kind.String())
	if showPositions {
		sb.WriteString(" [" + n.Span.Start.String() + "-" + n.Span.End.String() + "]")
	}
	if n.Token != nil && n.Token.Literal != "" {
		sb.WriteString(" " + n.Token.Literal)
	}
	if n.Error != nil {
		sb.WriteString(" ERROR: " + n.Error.Message)
	}
	sb.WriteString("\n")
	for i, child := range n.Children {
		child.writeIndent(sb, indent+1, showPositions, n.FieldOf(i))
	}
}

// Sexp renders n as a compact s-expression of node kinds with leaf text,
// which is convenient for comparing tree shapes in tests.
func (n *Node) Sexp() string {
	var sb strings.Builder
	n.writeSexp(&sb)
	return sb.String()
}

func (n *Node) writeSexp(sb *strings.Builder) {
	if n.Token != nil {
		switch n.Kind {
		case KindToken:
			sb.WriteString(n.Token.Literal)
		case KindMissing:
			sb.WriteString("<missing " + n.Token.Kind.String() + ">")
		default:
			sb.WriteString(n.Kind.String() + ":" + n.Token.Literal)
		}
		return
	}
	sb.WriteString("(" + n.Kind.String())
	for _, child := range n.Children {
		sb.WriteString(" ")
		child.writeSexp(sb)
	}
	sb.WriteString(")")
}
