//go:build darwin

package clipboard

import (
	"sync"
	"unsafe"
)

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
// #include <string.h>
//
// const char* readPasteboardText() {
//     NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
//     NSString *string = [pasteboard stringForType:NSPasteboardTypeString];
//     return [string UTF8String];
// }
//
// // readPasteboardData copies the pasteboard payload for the given UTI
// // into a malloc'd buffer. Caller frees. Returns NULL when absent.
// unsigned char* readPasteboardData(const char* type, int* length) {
//     NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
//     NSString *uti = [NSString stringWithUTF8String:type];
//     NSData *data = [pasteboard dataForType:uti];
//     if (data == nil || [data length] == 0) {
//         return NULL;
//     }
//     *length = (int)[data length];
//     unsigned char *buf = malloc([data length]);
//     memcpy(buf, [data bytes], [data length]);
//     return buf;
// }
import "C"

var pasteboardLock sync.RWMutex

// richTypes lists pasteboard UTIs probed for non-text content, in
// preference order.
var richTypes = []struct {
	uti  string
	mime string
}{
	{"public.png", "image/png"},
	{"public.tiff", "image/tiff"},
	{"com.adobe.pdf", "application/pdf"},
	{"public.rtf", "text/rtf"},
}

func available() bool { return true }

func readText() (string, error) {
	pasteboardLock.RLock()
	defer pasteboardLock.RUnlock()

	cstr := C.readPasteboardText()
	if cstr == nil {
		return "", nil
	}
	return C.GoString(cstr), nil
}

func readRich() ([]byte, string, error) {
	pasteboardLock.RLock()
	defer pasteboardLock.RUnlock()

	for _, rt := range richTypes {
		ctype := C.CString(rt.uti)
		var length C.int
		buf := C.readPasteboardData(ctype, &length)
		C.free(unsafe.Pointer(ctype))
		if buf == nil {
			continue
		}
		data := C.GoBytes(unsafe.Pointer(buf), length)
		C.free(unsafe.Pointer(buf))
		return data, rt.mime, nil
	}
	return nil, "", ErrEmpty
}
