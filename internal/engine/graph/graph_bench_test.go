package graph

import (
	"testing"
)

func syntheticBuilder(nodes, fanOut int) *Builder {
	b := NewBuilderWithCapacity(nodes, nodes*fanOut)
	for i := 0; i < nodes; i++ {
		for j := 1; j <= fanOut; j++ {
			// sparse, non-contiguous ids
			_ = b.Add(int64(i)*1_000_003, int64((i*j*31+j)%nodes)*1_000_003)
		}
	}
	return b
}

func BenchmarkBuild(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := syntheticBuilder(10_000, 8).Build(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTraverse(b *testing.B) {
	s, err := syntheticBuilder(50_000, 8).Build()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Traverse(0, 3)
	}
}

func BenchmarkMaxOutDegreeNode(b *testing.B) {
	s, err := syntheticBuilder(50_000, 8).Build()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = s.MaxOutDegreeNode()
	}
}
