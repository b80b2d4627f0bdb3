package dag

import (
	"strings"

	"github.com/twbdoc/twbdoc/internal/fields"
	"github.com/twbdoc/twbdoc/internal/lineage"
)

// TypeResolver resolves a display name to a field type.
type TypeResolver interface {
	TypeOf(displayName string) (fields.Type, bool)
}

// BuildDependencyGraph builds the field graph from dependency records,
// inserting nodes and edges in record order.
//
// Unresolved sources are typed "Unknown" and unresolved consumers
// "Calculated Field". A node that has been a source keeps its role and
// consumer count when it is met again as a consumer.
func BuildDependencyGraph(records []lineage.DependencyRecord, types TypeResolver) *Graph {
	g := NewGraph()

	for _, rec := range records {
		consumers := rec.Consumers
		if consumers == nil && rec.WhereUsed != "" {
			consumers = strings.Split(rec.WhereUsed, lineage.WhereUsedSeparator)
		}

		src := g.AddNode(rec.FieldName)
		src.FieldType = typeLabel(types, rec.FieldName, fields.UnknownTypeName)
		src.UsedTimes = rec.UsedTimes
		src.Role = RoleSource

		for _, consumer := range consumers {
			node := g.AddNode(consumer)
			if node.Role != RoleSource {
				node.FieldType = typeLabel(types, consumer, fields.CalculatedField.String())
				node.Role = RoleDependent
			}
			// Both endpoints were just added.
			_ = g.AddEdge(rec.FieldName, consumer)
		}
	}

	return g
}

func typeLabel(types TypeResolver, name, fallback string) string {
	if types == nil {
		return fallback
	}
	if t, ok := types.TypeOf(name); ok {
		return t.String()
	}
	return fallback
}
