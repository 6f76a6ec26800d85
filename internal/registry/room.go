package registry

import "sort"

// Room holds its creator and a set of member names. Members are names,
// not session pointers; the registry resolves them to sessions under its
// mutex. Rooms persist even when their last member leaves.
type Room struct {
	Name    string
	Creator string
	members map[string]struct{}
}

func newRoom(name, creator string) *Room {
	return &Room{
		Name:    name,
		Creator: creator,
		members: map[string]struct{}{creator: {}},
	}
}

func (r *Room) join(name string) {
	r.members[name] = struct{}{}
}

// leave removes name from the member set, reporting whether it was there.
func (r *Room) leave(name string) bool {
	if _, ok := r.members[name]; !ok {
		return false
	}
	delete(r.members, name)
	return true
}

func (r *Room) has(name string) bool {
	_, ok := r.members[name]
	return ok
}

func (r *Room) memberNames() []string {
	if len(r.members) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
