// Package mediatypes provides the content classifier and the shared media
// type definitions used across the indexer.
//
// This package exists as a dependency-free foundation that can be imported by other
// packages without creating import cycles. It contains primitive types, constants,
// and pure utility functions with no external dependencies beyond the standard library.
//
// # Classification
//
// A Classifier maps a file extension to a Kind. The recognized extension
// sets come from configuration; anything else is KindUnsupported and never
// reaches the rest of the pipeline:
//
//	c := mediatypes.NewClassifier(mediatypes.DefaultImageExtensions, mediatypes.DefaultVideoExtensions)
//
//	switch c.Classify(filepath.Ext(name)) {
//	case mediatypes.KindImage:
//	    // Extract dimensions and EXIF date
//	case mediatypes.KindVideo:
//	    // Probe streams
//	}
//
// Extensions are matched case-insensitively and with or without the leading dot.
//
// # Media Types
//
// Indexed records carry a MediaType, which is finer grained than Kind: a short
// video next to a still photo becomes MediaTypeLivePhotoVideo.
package mediatypes
