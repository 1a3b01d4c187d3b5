// Package fsm 提供基于转移表的有限状态机，所有带状态审核流的实体共用。
package fsm

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrSameState         = errors.New("status is unchanged")
)

// TransitionError 描述一次被拒绝的流转
type TransitionError[S comparable] struct {
	Machine string
	From    S
	To      S
	Err     error
}

func (e *TransitionError[S]) Error() string {
	return fmt.Sprintf("%s: cannot move from %v to %v: %v", e.Machine, e.From, e.To, e.Err)
}

func (e *TransitionError[S]) Unwrap() error {
	return e.Err
}

// Machine 只读转移表，创建后并发安全
type Machine[S comparable] struct {
	name        string
	transitions map[S]map[S]struct{}
	states      []S
}

// New 根据转移表创建状态机。表中只作为目标出现的状态视为终态。
func New[S comparable](name string, table map[S][]S) *Machine[S] {
	m := &Machine[S]{
		name:        name,
		transitions: make(map[S]map[S]struct{}, len(table)),
	}

	seen := make(map[S]struct{})
	addState := func(s S) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			m.states = append(m.states, s)
		}
	}

	for from, tos := range table {
		addState(from)
		set := make(map[S]struct{}, len(tos))
		for _, to := range tos {
			set[to] = struct{}{}
			addState(to)
		}
		m.transitions[from] = set
	}

	sort.Slice(m.states, func(i, j int) bool {
		return fmt.Sprint(m.states[i]) < fmt.Sprint(m.states[j])
	})

	return m
}

func (m *Machine[S]) Name() string {
	return m.name
}

// Can 报告 from -> to 是否合法
func (m *Machine[S]) Can(from, to S) bool {
	if from == to {
		return false
	}
	_, ok := m.transitions[from][to]
	return ok
}

// Validate 校验流转，失败时返回 *TransitionError
func (m *Machine[S]) Validate(from, to S) error {
	if from == to {
		return &TransitionError[S]{Machine: m.name, From: from, To: to, Err: ErrSameState}
	}
	if !m.Can(from, to) {
		return &TransitionError[S]{Machine: m.name, From: from, To: to, Err: ErrIllegalTransition}
	}
	return nil
}

// Next 返回 from 的所有合法后继状态
func (m *Machine[S]) Next(from S) []S {
	next := make([]S, 0, len(m.transitions[from]))
	for to := range m.transitions[from] {
		next = append(next, to)
	}
	sort.Slice(next, func(i, j int) bool {
		return fmt.Sprint(next[i]) < fmt.Sprint(next[j])
	})
	return next
}

// IsTerminal 没有出边的状态为终态
func (m *Machine[S]) IsTerminal(s S) bool {
	return len(m.transitions[s]) == 0
}

// Knows 报告状态是否出现在转移表中
func (m *Machine[S]) Knows(s S) bool {
	for _, known := range m.states {
		if known == s {
			return true
		}
	}
	return false
}

// States 返回全部已知状态（按字典序）
func (m *Machine[S]) States() []S {
	out := make([]S, len(m.states))
	copy(out, m.states)
	return out
}
