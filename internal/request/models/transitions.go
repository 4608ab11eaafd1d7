package models

import "slices"

// Requirement is a piece of linked data a transition needs.
type Requirement string

const (
	RequirePayment     Requirement = "payment"
	RequireCertificate Requirement = "certificate"
)

// Rule is the transition table entry for one state.
type Rule struct {
	Next     []State
	Roles    []Role
	Requires []Requirement
}

// table is fixed at compile time and never mutated; lookups hand out copies.
var table = map[State]Rule{
	StateRegistered: {
		Next:  []State{StateDerivedToEditor},
		Roles: []Role{RoleMesaDePartes, RoleSystem},
	},
	StateDerivedToEditor: {
		Next:  []State{StateSearching},
		Roles: []Role{RoleEditor, RoleAdmin},
	},
	StateSearching: {
		Next:  []State{StateRecordFoundPendingPayment, StateRecordNotFound},
		Roles: []Role{RoleEditor, RoleAdmin},
	},
	StateRecordFoundPendingPayment: {
		Next:     []State{StateReadyForOCR},
		Roles:    []Role{RoleSystem, RoleMesaDePartes},
		Requires: []Requirement{RequirePayment},
	},
	StateReadyForOCR: {
		Next:  []State{StateOCRProcessing},
		Roles: []Role{RoleEditor, RoleAdmin},
	},
	StatePaymentValidated: {
		Next:     []State{StateOCRProcessing},
		Roles:    []Role{RoleEditor, RoleAdmin},
		Requires: []Requirement{RequirePayment},
	},
	StateOCRProcessing: {
		Next:     []State{StateCertificateIssued},
		Roles:    []Role{RoleEditor, RoleAdmin},
		Requires: []Requirement{RequireCertificate},
	},
	StateCertificateIssued: {
		Next:  []State{StateDelivered},
		Roles: []Role{RoleSystem, RoleMesaDePartes},
	},
	StateRecordNotFound: {},
	StateDelivered:      {},
}

// targetRequirements lists data that must be linked before a state can be entered.
var targetRequirements = map[State][]Requirement{
	StateReadyForOCR:       {RequirePayment},
	StatePaymentValidated:  {RequirePayment},
	StateCertificateIssued: {RequireCertificate},
}

// Lookup returns the table entry for s.
func Lookup(s State) (Rule, bool) {
	r, ok := table[s]
	if !ok {
		return Rule{}, false
	}
	return Rule{
		Next:     slices.Clone(r.Next),
		Roles:    slices.Clone(r.Roles),
		Requires: slices.Clone(r.Requires),
	}, true
}

// AllowedNext returns the states reachable from s.
func AllowedNext(s State) []State {
	return slices.Clone(table[s].Next)
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s State) bool {
	r, ok := table[s]
	return ok && len(r.Next) == 0
}

// States returns every state in declaration order of the lifecycle.
func States() []State {
	return []State{
		StateRegistered,
		StateDerivedToEditor,
		StateSearching,
		StateRecordFoundPendingPayment,
		StateRecordNotFound,
		StateReadyForOCR,
		StatePaymentValidated,
		StateOCRProcessing,
		StateCertificateIssued,
		StateDelivered,
	}
}

// Permits reports whether role may leave from.
func (r Rule) Permits(role Role) bool {
	return slices.Contains(r.Roles, role)
}

// Reaches reports whether to is a listed next state.
func (r Rule) Reaches(to State) bool {
	return slices.Contains(r.Next, to)
}

// Requirements returns the union of data required to leave from and to enter to.
func Requirements(from, to State) []Requirement {
	var out []Requirement
	for _, req := range append(slices.Clone(table[from].Requires), targetRequirements[to]...) {
		if !slices.Contains(out, req) {
			out = append(out, req)
		}
	}
	return out
}
