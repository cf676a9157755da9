// Package navstack modela la pila de vistas de la app como una máquina de
// estados explícita (push/pop), sin depender de un history API concreto.
package navstack

// View identifica una pantalla o modal dentro de una sección.
type View string

// Stack es una pila de vistas con un estado inicial declarado.
// El estado inicial nunca se desapila: Pop sobre la raíz la mantiene.
type Stack struct {
	initial View
	stack   []View
}

func New(initial View) *Stack {
	return &Stack{
		initial: initial,
		stack:   []View{initial},
	}
}

// Current devuelve la vista activa.
func (s *Stack) Current() View {
	return s.stack[len(s.stack)-1]
}

// Push apila una vista nueva. Apilar la vista actual es un no-op,
// para que un doble tap no duplique pantallas.
func (s *Stack) Push(v View) {
	if v == s.Current() {
		return
	}
	s.stack = append(s.stack, v)
}

// Pop desapila la vista activa y devuelve la nueva vista actual.
// Sobre la raíz no hace nada (equivale a salir de la sección),
// y lo reporta con ok=false.
func (s *Stack) Pop() (View, bool) {
	if len(s.stack) == 1 {
		return s.initial, false
	}
	s.stack = s.stack[:len(s.stack)-1]
	return s.Current(), true
}

// Reset vuelve al estado inicial descartando todo lo apilado.
func (s *Stack) Reset() {
	s.stack = s.stack[:1]
}

// Depth devuelve cuántas vistas hay apiladas (incluida la raíz).
func (s *Stack) Depth() int {
	return len(s.stack)
}
