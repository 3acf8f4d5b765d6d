// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

// Meta holds the document information dictionary fields worth logging.
type Meta struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Creator  string `json:"creator,omitempty"`
	Producer string `json:"producer,omitempty"`
}

// Info returns the /Info dictionary fields. Missing entries are empty.
func (r *Reader) Info() Meta {
	info := r.Trailer().Key("Info")
	return Meta{
		Title:    info.Key("Title").Text(),
		Author:   info.Key("Author").Text(),
		Creator:  info.Key("Creator").Text(),
		Producer: info.Key("Producer").Text(),
	}
}
