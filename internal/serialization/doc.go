// Package serialization reads and writes RoI pooling tensors in SafeTensors format.
//
// A forward result (pooled output, index map, and the input shape needed by
// the backward pass) is stored as one file so that gradients can be routed
// in a later process:
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}, plus __metadata__]
//	  [Tensor data: raw little-endian bytes, tensors in name order]
//
// The writer records a SHA-256 checksum of the data section in the metadata;
// the reader verifies it when present and validates every offset before
// touching tensor data.
//
// Example usage:
//
//	err := serialization.WriteForward("pooled.safetensors", &serialization.ForwardResult{
//	    Output:     output,
//	    Indices:    indices,
//	    InputShape: features.Shape(),
//	    Config:     cfg,
//	})
//
//	result, err := serialization.ReadForward("pooled.safetensors")
//	inputGrad, err := backend.RoIPoolBackward(grad, result.Indices, result.InputShape)
package serialization
