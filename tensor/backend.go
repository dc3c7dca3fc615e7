// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/roipool/internal/tensor"

// Backend is the compute interface every RoI pooling backend implements.
//
// RoIPool returns the pooled output and the int32 index map.
// RoIPoolBackward routes an output gradient back to a zero-initialized
// gradient of the given input shape.
type Backend = tensor.Backend
