package api

// Host is a read-only snapshot of one inventory entry.
type Host struct {
	Name     string         `yaml:"name"`
	Hostname string         `yaml:"hostname"`
	Port     int            `yaml:"port"`
	Username string         `yaml:"username"`
	Password string         `yaml:"password"`
	Platform string         `yaml:"platform"`
	Groups   []string       `yaml:"groups"`
	Data     map[string]any `yaml:"data"`
}

func (h *Host) String() string {
	if h == nil {
		return ""
	}
	return h.Name
}

// Vars returns the host attributes keyed by attribute name. The returned map
// is a fresh copy; mutating it does not affect the host.
func (h *Host) Vars() map[string]any {
	if h == nil {
		return map[string]any{}
	}
	groups := make([]string, len(h.Groups))
	copy(groups, h.Groups)
	data := make(map[string]any, len(h.Data))
	for k, v := range h.Data {
		data[k] = v
	}
	return map[string]any{
		"name":     h.Name,
		"hostname": h.Hostname,
		"port":     h.Port,
		"username": h.Username,
		"password": h.Password,
		"platform": h.Platform,
		"groups":   groups,
		"data":     data,
	}
}

// Inventory is an ordered set of hosts keyed by name.
type Inventory struct {
	hosts []*Host
	index map[string]int
}

// InventorySource is anything that can hand out an inventory: the inventory
// itself, or a runner wrapping one.
type InventorySource interface {
	Inventory() *Inventory
}

// NewInventory returns an inventory holding hosts in the given order.
func NewInventory(hosts ...*Host) *Inventory {
	inv := &Inventory{index: map[string]int{}}
	for _, h := range hosts {
		inv.Add(h)
	}
	return inv
}

// Add appends a host. A host with an existing name replaces the previous
// entry in place.
func (i *Inventory) Add(h *Host) {
	if h == nil {
		return
	}
	if i.index == nil {
		i.index = map[string]int{}
	}
	if pos, ok := i.index[h.Name]; ok {
		i.hosts[pos] = h
		return
	}
	i.index[h.Name] = len(i.hosts)
	i.hosts = append(i.hosts, h)
}

// Get looks a host up by name.
func (i *Inventory) Get(name string) (*Host, bool) {
	pos, ok := i.index[name]
	if !ok {
		return nil, false
	}
	return i.hosts[pos], true
}

// Hosts returns the hosts in insertion order.
func (i *Inventory) Hosts() []*Host {
	out := make([]*Host, len(i.hosts))
	copy(out, i.hosts)
	return out
}

func (i *Inventory) Len() int { return len(i.hosts) }

// Inventory makes *Inventory an InventorySource.
func (i *Inventory) Inventory() *Inventory { return i }
