// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tm16xx is a container for the Titan Micro LED controller drivers
// and their helpers.
//
// See package tm1637 for the display driver and package twowire for the
// bus it runs on.
package tm16xx
