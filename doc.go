// Package combustion converts retail PC cache files into Custom Edition
// cache files.
//
// Custom Edition maps load bitmap and sound data from the runtime's shared
// resource maps. Conversion walks every bitmap and sound tag of a map and,
// for each one, either:
//   - points the tag at a resource map entry holding byte-identical data, or
//   - copies its payloads out of the retail shared pools into the tag's own
//     asset stream, rewriting the payload offsets
//
// Before that pass, the multiplayer scenario type tags of an optional
// auxiliary map (normally ui.map) are merged into the map so the Custom
// Edition user interface can list them.
//
// # Quick Start
//
//	res, err := combustion.Convert(combustion.Inputs{
//	    Map:           mapBytes,
//	    Auxiliary:     uiBytes,
//	    SourceBitmaps: retailBitmaps,
//	    TargetBitmaps: customBitmaps,
//	    SourceSounds:  retailSounds,
//	    TargetSounds:  customSounds,
//	}, combustion.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	err = os.WriteFile("bloodgulch.map", res.Data, 0o644)
//
// Conversion is all-or-nothing: a malformed input yields an error and no
// output. Input buffers are never modified.
//
// The container formats are implemented by the [cachefile] and
// [resourcemap] subpackages.
package combustion
