package analyzer

import (
	"strings"
	"testing"
)

// benchmarkContent generates request-like text for benchmarking.
func benchmarkContent(size int) string {
	sb := strings.Builder{}
	sb.Grow(size)

	paragraphs := []string{
		"Necesito una laptop para diseño gráfico con al menos 32GB de RAM. El presupuesto es alto.",
		"Busco una computadora de escritorio para juegos con tarjeta gráfica RTX 4060.",
		"Quiero un portátil barato para la universidad, con SSD de 512GB.",
		"Laptop para oficina con procesador Intel Core i5 y 16GB de memoria.",
		"Una PC gamer con 1TB NVMe y Ryzen 7 para edición de video.",
	}

	for sb.Len() < size {
		for _, p := range paragraphs {
			sb.WriteString(p)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func BenchmarkFindTermMatches_SmallContent(b *testing.B) {
	content := benchmarkContent(1024)
	terms := []string{"laptop", "diseño gráfico", "juegos", "oficina"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, terms)
	}
}

func BenchmarkFindTermMatches_LargeContent(b *testing.B) {
	content := benchmarkContent(100 * 1024)
	terms := []string{"laptop", "diseño gráfico", "juegos", "oficina", "universidad", "gamer"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, terms)
	}
}

func BenchmarkFold(b *testing.B) {
	content := benchmarkContent(10 * 1024)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		Fold(content)
	}
}

func BenchmarkSplitIntoSentences(b *testing.B) {
	content := benchmarkContent(50 * 1024)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		splitIntoSentences(content)
	}
}
