package detail

// ModalStatus is the state of the detail modal.
type ModalStatus int

const (
	ModalClosed ModalStatus = iota
	ModalLoading
	ModalOpen
)

func (s ModalStatus) String() string {
	switch s {
	case ModalLoading:
		return "loading"
	case ModalOpen:
		return "open"
	default:
		return "closed"
	}
}

// Modal tracks one detail request at a time. A result is accepted only for
// the latest request token, and the modal opens only with a complete View.
// It is not safe for concurrent use; the UI owns it.
type Modal struct {
	status  ModalStatus
	token   uint64
	symbol  string
	view    View
	err     error
	persona Persona
}

// Request starts loading symbol and returns the token its result must carry.
func (m *Modal) Request(symbol string) uint64 {
	m.token++
	m.status = ModalLoading
	m.symbol = symbol
	m.view = View{}
	m.err = nil
	m.persona = PersonaAll
	return m.token
}

// Pending reports whether token belongs to the request in flight.
func (m *Modal) Pending(token uint64) bool {
	return token == m.token && m.status == ModalLoading
}

// Resolve opens the modal with v if token is current. It reports whether v was accepted.
func (m *Modal) Resolve(token uint64, v View) bool {
	if !m.Pending(token) {
		return false
	}
	if !v.Complete() {
		m.status = ModalClosed
		m.err = ErrIncomplete
		return false
	}
	m.status = ModalOpen
	m.view = v
	return true
}

// Fail closes the modal with err if token is current.
func (m *Modal) Fail(token uint64, err error) bool {
	if !m.Pending(token) {
		return false
	}
	m.status = ModalClosed
	m.view = View{}
	m.err = err
	return true
}

// Close dismisses the modal and invalidates any request in flight.
func (m *Modal) Close() {
	m.token++
	m.status = ModalClosed
	m.view = View{}
	m.err = nil
	m.persona = PersonaAll
}

// CyclePersona moves the recommendation filter to the next tab.
func (m *Modal) CyclePersona() {
	m.persona = m.persona.Next()
}

// Status returns the modal status.
func (m *Modal) Status() ModalStatus { return m.status }

// Symbol returns the symbol of the latest request.
func (m *Modal) Symbol() string { return m.symbol }

// Err returns the error of the latest failed request.
func (m *Modal) Err() error { return m.err }

// Persona returns the active recommendation filter.
func (m *Modal) Persona() Persona {
	if m.persona == "" {
		return PersonaAll
	}
	return m.persona
}

// View returns the open view. ok is false unless the modal is open.
func (m *Modal) View() (View, bool) {
	if m.status != ModalOpen {
		return View{}, false
	}
	return m.view, true
}
