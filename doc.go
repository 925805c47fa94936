//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package patcher keeps a local game installation in sync with a remotely
// hosted translation pack. It downloads the files listed in a pack, part by
// part, into a staging folder (or straight into the game folder when
// fetching the original files of a region), and keeps a backup of every
// live file it replaces so that the installation can be restored.
package patcher
