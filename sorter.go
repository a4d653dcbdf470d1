package chassis

import (
	"fmt"
	"reflect"
	"sort"
)

// DependencySorter orders service descriptors so that every declared
// dependency appears before its dependents. The sort is a depth-first
// post-order traversal; nodes are marked visited before recursing so diamond
// dependencies are emitted exactly once.
//
// A dependency with no matching descriptor in the input set fails the sort,
// as do a dependency cycle and two descriptors declaring the same type.
type DependencySorter struct {
	descriptors map[reflect.Type]ServiceDescriptor
	duplicate   reflect.Type
}

// NewDependencySorter creates a sorter over the given descriptor set.
func NewDependencySorter(descriptors []ServiceDescriptor) *DependencySorter {
	s := &DependencySorter{}
	byType := make(map[reflect.Type]ServiceDescriptor, len(descriptors))
	for _, d := range descriptors {
		if _, exists := byType[d.Type]; exists && s.duplicate == nil {
			s.duplicate = d.Type
		}
		byType[d.Type] = d
	}
	s.descriptors = byType
	return s
}

// Sort returns the descriptors in construction order.
func (s *DependencySorter) Sort() ([]ServiceDescriptor, error) {
	if s.duplicate != nil {
		return nil, fmt.Errorf("%w: duplicate descriptor for %s", ErrServiceAlreadyRegistered, s.duplicate)
	}

	visited := make(map[reflect.Type]bool, len(s.descriptors))
	visiting := make(map[reflect.Type]bool)
	result := make([]ServiceDescriptor, 0, len(s.descriptors))

	var visit func(t reflect.Type) error
	visit = func(t reflect.Type) error {
		if visiting[t] {
			return fmt.Errorf("%w: %s", ErrCircularDependency, t)
		}
		if visited[t] {
			return nil
		}
		visited[t] = true
		visiting[t] = true

		for _, dep := range s.descriptors[t].Dependencies {
			if _, exists := s.descriptors[dep]; !exists {
				return fmt.Errorf("%w: %s depends on %s", ErrDependencyMissing, t, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		visiting[t] = false
		result = append(result, s.descriptors[t])
		return nil
	}

	// Iterate in a deterministic order so repeated sorts of the same set
	// produce the same sequence.
	for _, t := range sortedTypes(s.descriptors) {
		if !visited[t] {
			if err := visit(t); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func sortedTypes(descriptors map[reflect.Type]ServiceDescriptor) []reflect.Type {
	types := make([]reflect.Type, 0, len(descriptors))
	for t := range descriptors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
	return types
}
