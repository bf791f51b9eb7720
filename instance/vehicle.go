package instance

import "sort"

// Vehicle is an actor able to perform a fixed set of service types.
type Vehicle struct {
	id     int
	skills map[int]struct{}
}

// NewVehicle creates a vehicle with the given skills.
func NewVehicle(id int, skills ...int) *Vehicle {
	v := &Vehicle{id: id, skills: make(map[int]struct{}, len(skills))}
	for _, s := range skills {
		v.skills[s] = struct{}{}
	}
	return v
}

func (v *Vehicle) ID() int { return v.id }

// Skills returns the service types of the vehicle in ascending order.
func (v *Vehicle) Skills() []int {
	out := make([]int, 0, len(v.skills))
	for s := range v.skills {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// CanServe reports whether the vehicle has the skill for service.
func (v *Vehicle) CanServe(service int) bool {
	_, ok := v.skills[service]
	return ok
}
