// Package hocr models OCR output in the hOCR layout (pages, lines, words with
// bounding boxes and confidences) and parses it from HTML.
//
// Both OCR engines used by gradeflow report through this model: Tesseract
// emits hOCR directly and Document AI responses are converted into it, so
// text and confidence are read the same way regardless of the engine.
package hocr
