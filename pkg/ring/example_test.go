package ring_test

import (
	"fmt"

	"github.com/matzehuels/spotlight/pkg/ring"
)

func ExampleCompute() {
	positions := ring.Compute(1, 400, 400)
	fmt.Printf("%.0f,%.0f\n", positions[0].X, positions[0].Y)
	// Output: 217,145
}

func ExampleLayout_RingSizes() {
	l := ring.ComputeWithOptions(24, 800, 600, ring.DefaultOptions())
	fmt.Println(l.RingSizes())
	// Output: [6 11 7]
}
