package roomchat

// presence holds the roster of the current room. Every snapshot replaces it whole.
type presence struct {
	roster []RosterEntry
	view   View
}

func (p *presence) replace(info RoomInfo) {
	p.roster = append([]RosterEntry(nil), info.Users...)
	p.report()
}

func (p *presence) reset() {
	p.roster = nil
	p.report()
}

func (p *presence) snapshot() []RosterEntry {
	return append([]RosterEntry{}, p.roster...)
}

func (p *presence) report() {
	p.view.OnRosterUpdate(p.snapshot())
}
