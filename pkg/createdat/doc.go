// Package createdat resolves the capture time of a media file.
//
// Photos are read for embedded EXIF timestamps, checked in a fixed order
// (DateTimeOriginal, DateTime, DateTimeDigitized). Anything that cannot be dated from
// DateTimeOriginal is flagged approximate, and files without usable metadata fall
// back to their modification time.
package createdat
