// Copyright 2025 go-jpeg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jpeg

import (
	"sync"

	"github.com/ajroetker/go-highway/hwy"
	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
	"golang.org/x/sys/cpu"
)

// hasWideKernels reports whether the running CPU profile carries the
// vector extensions the lane kernels are shaped for. Checked once;
// every kernel family keeps the scalar implementation as the
// reference output.
var hasWideKernels = cpu.X86.HasAVX2 || cpu.X86.HasSSE41 || cpu.ARM64.HasASIMD

// wideKernelsEnabled resolves the backend choice for one decode.
// An unavailable or disabled wide path falls back to scalar silently.
func wideKernelsEnabled(disable bool) bool {
	return !disable && hasWideKernels
}

// Component planes live in SIMD-aligned images so the row kernels see
// well-aligned storage. Planes recycle through a pool; a dimension
// change discards the pooled image and allocates fresh.

var planePool sync.Pool

func getPlane(w, h int) *hwyimage.Image[int32] {
	img, _ := planePool.Get().(*hwyimage.Image[int32])
	if img == nil || img.Width() != w || img.Height() != h {
		return hwyimage.NewImage[int32](w, h)
	}
	return img
}

func putPlane(img *hwyimage.Image[int32]) {
	if img != nil {
		planePool.Put(img)
	}
}

// planeRows builds per-row views over the image's first h rows. The
// slices alias the image storage; they stay valid until the plane is
// returned to the pool.
func planeRows[T hwy.Lanes](img *hwyimage.Image[T], h int) [][]T {
	w := img.Width()
	rows := make([][]T, h)
	for y := range h {
		rows[y] = img.Row(y)[:w]
	}
	return rows
}
