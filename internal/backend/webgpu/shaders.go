//go:build windows

package webgpu

// workgroupSize is the number of threads per workgroup.
const workgroupSize = 256

// roiPoolShader computes one output cell per thread.
// Bin spans are quantized on the host and uploaded per region, so the
// GPU and CPU kernels agree on every bin boundary.
// Output and index map shape: [regions, pool_h, pool_w, channels].
const roiPoolShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> row_spans: array<vec2<i32>>;
@group(0) @binding(2) var<storage, read> col_spans: array<vec2<i32>>;
@group(0) @binding(3) var<storage, read> batches: array<i32>;
@group(0) @binding(4) var<storage, read_write> output: array<f32>;
@group(0) @binding(5) var<storage, read_write> indices: array<i32>;

struct Params {
    cells: u32,
    channels: u32,
    pool_h: u32,
    pool_w: u32,
    height: u32,
    width: u32,
}
@group(0) @binding(6) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>,
        @builtin(num_workgroups) num_groups: vec3<u32>) {
    let k = global_id.y * num_groups.x * 256u + global_id.x;
    if (k >= params.cells) {
        return;
    }

    let c = k % params.channels;
    let bin = k / params.channels;
    let j = bin % params.pool_w;
    let i = (bin / params.pool_w) % params.pool_h;
    let r = bin / (params.pool_w * params.pool_h);

    let rows = row_spans[r * params.pool_h + i];
    let cols = col_spans[r * params.pool_w + j];

    // Empty bin
    if (rows.x >= rows.y || cols.x >= cols.y) {
        output[k] = 0.0;
        indices[k] = -1;
        return;
    }

    let b = batches[r];
    let h = i32(params.height);
    let w = i32(params.width);
    let ch = i32(params.channels);

    var best: i32 = ((b * h + rows.x) * w + cols.x) * ch + i32(c);
    var max_val: f32 = input[best];

    // Row-major scan; strict > keeps the first maximum.
    for (var y: i32 = rows.x; y < rows.y; y = y + 1) {
        for (var x: i32 = cols.x; x < cols.y; x = x + 1) {
            let off = ((b * h + y) * w + x) * ch + i32(c);
            let v = input[off];
            // NaN test on the bits; v != v may be folded away.
            if ((bitcast<u32>(v) & 0x7fffffffu) > 0x7f800000u) {
                output[k] = v;
                indices[k] = off;
                return;
            }
            if (v > max_val) {
                max_val = v;
                best = off;
            }
        }
    }

    output[k] = max_val;
    indices[k] = best;
}
`

// roiPoolBackwardShader scatters gradients with one thread per channel.
// Index entries always carry their cell's channel, so threads write
// disjoint input elements and add in cell order.
const roiPoolBackwardShader = `
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read> indices: array<i32>;
@group(0) @binding(2) var<storage, read_write> input_grad: array<f32>;

struct Params {
    bins: u32,
    channels: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>,
        @builtin(num_workgroups) num_groups: vec3<u32>) {
    let c = global_id.y * num_groups.x * 256u + global_id.x;
    if (c >= params.channels) {
        return;
    }

    for (var bin: u32 = 0u; bin < params.bins; bin = bin + 1u) {
        let k = bin * params.channels + c;
        let src = indices[k];
        if (src >= 0) {
            input_grad[src] = input_grad[src] + grad[k];
        }
    }
}
`
