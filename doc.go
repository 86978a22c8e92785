// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package controller is a container for the low-level drivers of a two-axis
// differential drive base: step pulse generation with closed-loop step
// counting, and quadrature wheel odometry.
package controller
