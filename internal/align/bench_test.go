package align

import (
	"fmt"
	"strings"
	"testing"
)

const (
	benchTarget    = "the quick brown fox jumps over the lazy dog while the farmer watches from the porch"
	benchCandidate = "a quick brown fox jumped over lazy dogs while the farmer was watching from his porch"
)

// BenchmarkScore measures character-level scoring of a typical sentence pair.
func BenchmarkScore(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Score(benchTarget, benchCandidate)
	}
}

// BenchmarkScoreParallel measures concurrent scoring throughput.
func BenchmarkScoreParallel(b *testing.B) {
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Score(benchTarget, benchCandidate)
		}
	})
}

// BenchmarkAlign measures word alignment at growing sentence lengths.
func BenchmarkAlign(b *testing.B) {
	for _, repeat := range []int{1, 5, 20} {
		target := strings.Repeat(benchTarget+" ", repeat)
		candidate := strings.Repeat(benchCandidate+" ", repeat)
		b.Run(fmt.Sprintf("repeat_%d", repeat), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = Align(target, candidate)
			}
		})
	}
}

// BenchmarkBuildMatrix measures grid construction over rune sequences.
func BenchmarkBuildMatrix(b *testing.B) {
	for _, n := range []int{16, 128, 1024} {
		s1 := []rune(strings.Repeat("a", n))
		s2 := []rune(strings.Repeat("ab", n/2))
		b.Run(fmt.Sprintf("len_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = BuildMatrix(s1, s2)
			}
		})
	}
}
